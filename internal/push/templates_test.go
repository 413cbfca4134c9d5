package push

import (
	"testing"

	"github.com/dukerupert/tasklevel/internal/model"
)

func TestTemplates(t *testing.T) {
	tests := []struct {
		name string
		got  Payload
		want Payload
	}{
		{
			"completed",
			ListCompleted("l1", "Lista daily"),
			Payload{Title: "🎉 Obiettivo raggiunto!", Body: `Hai completato "Lista daily"! Fantastico!`, Tag: "completed", URL: "/list/l1"},
		},
		{
			"check-in",
			ListCheckIn("l1", model.PeriodDaily),
			Payload{Title: "⏱️ Appena creato", Body: "Lista daily creata 5 minuti fa. Come sta procedendo?", Tag: "check-in", URL: "/list/l1"},
		},
		{
			"real vote",
			VoteReceived("anna", "l1", "Lista weekly", model.VoteReal),
			Payload{Title: "✅ Nuovo voto Real!", Body: `anna pensa che "Lista weekly" sia realistica!`, Tag: "vote-real", URL: "/list/l1"},
		},
		{
			"fake vote",
			VoteReceived("anna", "l1", "Lista weekly", model.VoteFake),
			Payload{Title: "❌ Nuovo voto Fake", Body: `anna ha dubbi su "Lista weekly"`, Tag: "vote-fake", URL: "/list/l1"},
		},
		{
			"expiring hours",
			ListExpiring("l1", "Lista daily", 3),
			Payload{Title: "⏰ Lista in scadenza!", Body: `"Lista daily" scade tra 3 ore`, Tag: "expiring", URL: "/list/l1"},
		},
		{
			"expiring last hour",
			ListExpiring("l1", "Lista daily", 1),
			Payload{Title: "⏰ Lista in scadenza!", Body: `"Lista daily" scade tra meno di un'ora!`, Tag: "expiring", URL: "/list/l1"},
		},
		{
			"expired",
			ListExpired("l1", "Lista daily"),
			Payload{Title: "⏳ Lista scaduta", Body: `"Lista daily" è scaduta. Puoi completarla comunque!`, Tag: "expired", URL: "/list/l1"},
		},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %+v, want %+v", tt.name, tt.got, tt.want)
		}
	}
}
