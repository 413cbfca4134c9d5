package tasklist

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/tasklevel/internal/model"
	"github.com/dukerupert/tasklevel/internal/store"
)

func publishedList(t *testing.T, env *testEnv) *model.List {
	t.Helper()
	l := createList(t, env, model.PeriodDaily, 4)
	completeList(t, env, l)
	if _, err := env.svc.MakePublic(context.Background(), "owner", l.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}
	return l
}

func TestVoteNotifiesOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	l := publishedList(t, env)

	res, err := env.svc.Vote(ctx, "voter", l.ID, model.VoteReal)
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if res.Action != store.VoteAdded || res.Votes.Real != 1 || res.Votes.Mine != 1 {
		t.Errorf("vote = %+v", res)
	}

	res, err = env.svc.Vote(ctx, "voter", l.ID, model.VoteFake)
	if err != nil {
		t.Fatalf("switch vote: %v", err)
	}
	if res.Action != store.VoteUpdated || res.Votes.Fake != 1 || res.Votes.Real != 0 {
		t.Errorf("switched vote = %+v", res)
	}

	res, err = env.svc.Vote(ctx, "voter", l.ID, model.VoteFake)
	if err != nil {
		t.Fatalf("withdraw vote: %v", err)
	}
	if res.Action != store.VoteRemoved || res.Votes != (model.VoteTally{}) {
		t.Errorf("withdrawn vote = %+v", res)
	}
	env.svc.Wait()

	realSent := env.notifier.byTag("vote-real")
	fakeSent := env.notifier.byTag("vote-fake")
	if len(realSent) != 1 || len(fakeSent) != 1 {
		t.Fatalf("vote notifications real=%d fake=%d, want 1 and 1", len(realSent), len(fakeSent))
	}
	if realSent[0].profileID != "owner" || realSent[0].payload.Body != `voter-name pensa che "Lista daily" sia realistica!` {
		t.Errorf("real vote notification = %+v", realSent[0])
	}
}

func TestVoteRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	private := createList(t, env, model.PeriodDaily, 4)
	if _, err := env.svc.Vote(ctx, "voter", private.ID, model.VoteReal); !errors.Is(err, ErrNotPublic) {
		t.Errorf("private list err = %v, want ErrNotPublic", err)
	}
	if _, err := env.svc.Vote(ctx, "voter", "missing", model.VoteReal); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing list err = %v, want ErrNotFound", err)
	}
	if _, err := env.svc.Vote(ctx, "voter", private.ID, 2); !errors.Is(err, ErrInvalidVote) {
		t.Errorf("bad value err = %v, want ErrInvalidVote", err)
	}
}

func TestSelfVoteIsSilent(t *testing.T) {
	env := newTestEnv(t)
	l := publishedList(t, env)

	if _, err := env.svc.Vote(context.Background(), "owner", l.ID, model.VoteReal); err != nil {
		t.Fatalf("vote: %v", err)
	}
	env.svc.Wait()
	if n := len(env.notifier.byTag("vote-real")); n != 0 {
		t.Errorf("self vote sent %d notifications", n)
	}
}

func TestRecordViewPublicList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	l := publishedList(t, env)

	first, err := env.svc.RecordView(ctx, "voter", l.ID)
	if err != nil || !first {
		t.Fatalf("first view = (%v, %v)", first, err)
	}
	again, err := env.svc.RecordView(ctx, "voter", l.ID)
	if err != nil || again {
		t.Errorf("repeat view = (%v, %v), want (false, nil)", again, err)
	}

	feed, err := env.svc.PublicLists(ctx, 10)
	if err != nil {
		t.Fatalf("public lists: %v", err)
	}
	if len(feed) != 1 || feed[0].ViewCount != 1 {
		t.Errorf("feed = %+v, want one list with 1 view", feed)
	}
}
