package push

import (
	"fmt"

	"github.com/dukerupert/tasklevel/internal/model"
)

func listURL(listID string) string {
	return "/list/" + listID
}

// ListCompleted is sent to the owner when every task of a list is done.
func ListCompleted(listID, title string) Payload {
	return Payload{
		Title: "🎉 Obiettivo raggiunto!",
		Body:  fmt.Sprintf("Hai completato \"%s\"! Fantastico!", title),
		Tag:   "completed",
		URL:   listURL(listID),
	}
}

// ListCheckIn nudges the owner a few minutes after creating a list.
func ListCheckIn(listID string, period model.PeriodType) Payload {
	return Payload{
		Title: "⏱️ Appena creato",
		Body:  fmt.Sprintf("Lista %s creata 5 minuti fa. Come sta procedendo?", period),
		Tag:   "check-in",
		URL:   listURL(listID),
	}
}

// VoteReceived tells the owner someone voted on a public list.
func VoteReceived(voterName, listID, title string, vote int) Payload {
	if vote == model.VoteReal {
		return Payload{
			Title: "✅ Nuovo voto Real!",
			Body:  fmt.Sprintf("%s pensa che \"%s\" sia realistica!", voterName, title),
			Tag:   "vote-real",
			URL:   listURL(listID),
		}
	}
	return Payload{
		Title: "❌ Nuovo voto Fake",
		Body:  fmt.Sprintf("%s ha dubbi su \"%s\"", voterName, title),
		Tag:   "vote-fake",
		URL:   listURL(listID),
	}
}

// ListExpiring warns that an incomplete list is about to expire.
func ListExpiring(listID, title string, hoursLeft int) Payload {
	body := fmt.Sprintf("\"%s\" scade tra %d ore", title, hoursLeft)
	if hoursLeft <= 1 {
		body = fmt.Sprintf("\"%s\" scade tra meno di un'ora!", title)
	}
	return Payload{
		Title: "⏰ Lista in scadenza!",
		Body:  body,
		Tag:   "expiring",
		URL:   listURL(listID),
	}
}

// ListExpired tells the owner the deadline passed.
func ListExpired(listID, title string) Payload {
	return Payload{
		Title: "⏳ Lista scaduta",
		Body:  fmt.Sprintf("\"%s\" è scaduta. Puoi completarla comunque!", title),
		Tag:   "expired",
		URL:   listURL(listID),
	}
}

// Test is sent by the test endpoint.
func Test() Payload {
	return Payload{
		Title: "🔔 Test Notifica",
		Body:  "Fantastico! Le notifiche funzionano! 🎉",
		Tag:   "test",
		URL:   "/",
	}
}
