package chat

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-go-golems/docchat/pkg/api"
	"github.com/stretchr/testify/require"
)

func TestAskQuestionSuccess(t *testing.T) {
	fb := newFakeBackend(t)
	release := make(chan struct{})
	fb.set(func(fb *fakeBackend) {
		fb.askHandler = func(w http.ResponseWriter, question string) {
			<-release
			writeJSON(w, http.StatusOK, api.AskResponse{Answer: "X is Y."})
		}
	})
	c := newTestController(t, fb, "tok")

	c.SetInput("  What is X?  ")
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.AskQuestion(context.Background())
	}()

	s := eventually(t, c, func(s State) bool { return s.Loading() })
	require.Equal(t, "", s.Input)
	msgs := s.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "What is X?", msgs[0].Text)
	require.True(t, msgs[0].IsUser)
	require.True(t, s.Transcript[len(s.Transcript)-1].Loading)

	close(release)
	<-done

	s = c.Snapshot()
	require.False(t, s.Loading())
	msgs = s.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "What is X?", msgs[0].Text)
	require.Equal(t, "X is Y.", msgs[1].Text)
	require.False(t, msgs[1].IsUser)
	require.False(t, s.InputDisabled)
}

func TestAskQuestionConcurrentSendsOnce(t *testing.T) {
	fb := newFakeBackend(t)
	release := make(chan struct{})
	fb.set(func(fb *fakeBackend) {
		fb.askHandler = func(w http.ResponseWriter, question string) {
			<-release
			writeJSON(w, http.StatusOK, api.AskResponse{Answer: "once"})
		}
	})
	c := newTestController(t, fb, "tok")
	c.SetInput("twice?")

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.AskQuestion(context.Background())
		}()
	}
	eventually(t, c, func(s State) bool { return s.Loading() })
	close(release)
	wg.Wait()

	s := c.Snapshot()
	require.Equal(t, 1, countContaining(s.Messages(), "twice?"))
	require.Equal(t, []string{"once"}, botMessages(s))
	_, _, askCalls := fb.calls()
	require.Equal(t, 1, askCalls)
}

func TestAskQuestionHTTPError(t *testing.T) {
	fb := newFakeBackend(t)
	fb.set(func(fb *fakeBackend) {
		fb.askHandler = func(w http.ResponseWriter, question string) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "overloaded"})
		}
	})
	c := newTestController(t, fb, "tok")

	c.SetInput("What is X?")
	c.AskQuestion(context.Background())

	s := c.Snapshot()
	require.False(t, s.Loading())
	require.False(t, s.InputDisabled)
	require.Nil(t, s.LimitPopup)
	bots := botMessages(s)
	require.Len(t, bots, 1)
	require.Contains(t, bots[0], "overloaded")
	require.Equal(t, "I'm sorry, I encountered an error: overloaded. Please try again.", bots[0])
}

func TestAskQuestionErrorFallbacks(t *testing.T) {
	t.Run("no detail", func(t *testing.T) {
		fb := newFakeBackend(t)
		fb.set(func(fb *fakeBackend) {
			fb.askHandler = func(w http.ResponseWriter, question string) {
				w.WriteHeader(http.StatusBadGateway)
			}
		})
		c := newTestController(t, fb, "")
		c.SetInput("q")
		c.AskQuestion(context.Background())

		bots := botMessages(c.Snapshot())
		require.Len(t, bots, 1)
		require.Contains(t, bots[0], askFailedFallback)
	})

	t.Run("connection failed", func(t *testing.T) {
		fb := newFakeBackend(t)
		c := newTestController(t, fb, "")
		fb.srv.Close()
		c.SetInput("q")
		c.AskQuestion(context.Background())

		s := c.Snapshot()
		require.False(t, s.Loading())
		bots := botMessages(s)
		require.Len(t, bots, 1)
		require.True(t, strings.HasPrefix(bots[0], "I'm sorry, I encountered an error: "))
		require.Contains(t, bots[0], api.PathAsk)
	})
}

func TestAskQuestionIgnoresEmptyInput(t *testing.T) {
	fb := newFakeBackend(t)
	c := newTestController(t, fb, "tok")

	c.SetInput("   ")
	c.AskQuestion(context.Background())

	require.Empty(t, c.Snapshot().Transcript)
	countCalls, _, askCalls := fb.calls()
	require.Zero(t, countCalls)
	require.Zero(t, askCalls)
}

func TestAskQuestionWithoutTokenSkipsQuota(t *testing.T) {
	fb := newFakeBackend(t)
	fb.set(func(fb *fakeBackend) { fb.count = 10 })
	c := newTestController(t, fb, "", WithPostAskDelay(time.Millisecond))

	c.SetInput("hello")
	c.AskQuestion(context.Background())
	time.Sleep(20 * time.Millisecond)

	s := c.Snapshot()
	require.Equal(t, []string{"answer to hello"}, botMessages(s))
	require.Nil(t, s.LimitPopup)
	countCalls, _, _ := fb.calls()
	require.Zero(t, countCalls)
}

func TestAskQuestionBlockedByLimit(t *testing.T) {
	fb := newFakeBackend(t)
	fb.set(func(fb *fakeBackend) { fb.count = InteractionLimit })
	c := newTestController(t, fb, "tok")

	c.SetInput("What?")
	c.AskQuestion(context.Background())

	s := c.Snapshot()
	require.NotNil(t, s.LimitPopup)
	require.True(t, s.InputDisabled)
	require.Equal(t, "What?", s.Input)
	msgs := s.Messages()
	require.Len(t, msgs, 1)
	require.False(t, msgs[0].IsUser)
	require.Equal(t, lockoutMessage, msgs[0].Text)
	_, _, askCalls := fb.calls()
	require.Zero(t, askCalls)
}

func TestAskQuestionFailsOpenOnCountError(t *testing.T) {
	fb := newFakeBackend(t)
	fb.set(func(fb *fakeBackend) {
		fb.count = InteractionLimit
		fb.countStatus = http.StatusInternalServerError
	})
	c := newTestController(t, fb, "tok")

	c.SetInput("still works?")
	c.AskQuestion(context.Background())

	s := c.Snapshot()
	require.Nil(t, s.LimitPopup)
	require.Equal(t, []string{"answer to still works?"}, botMessages(s))
}

func TestPostAskCheckShowsPopup(t *testing.T) {
	fb := newFakeBackend(t)
	fb.set(func(fb *fakeBackend) {
		fb.count = InteractionLimit - 1
		fb.askHandler = func(w http.ResponseWriter, question string) {
			fb.mu.Lock()
			fb.count++
			fb.mu.Unlock()
			writeJSON(w, http.StatusOK, api.AskResponse{Answer: "last one"})
		}
	})
	c := newTestController(t, fb, "tok", WithPostAskDelay(10*time.Millisecond))

	c.SetInput("final question")
	c.AskQuestion(context.Background())
	require.Nil(t, c.Snapshot().LimitPopup)

	s := eventually(t, c, func(s State) bool { return s.LimitPopup != nil })
	require.True(t, s.InputDisabled)
	msgs := s.Messages()
	require.Len(t, msgs, 3)
	require.Equal(t, "last one", msgs[1].Text)
	require.Equal(t, lockoutMessage, msgs[2].Text)
}

func TestShowLimitPopupIsIdempotentAndPermanent(t *testing.T) {
	fb := newFakeBackend(t)
	c := newTestController(t, fb, "tok")

	c.ShowLimitPopup()
	first := c.Snapshot()
	c.ShowLimitPopup()
	second := c.Snapshot()

	require.Equal(t, first, second)
	require.NotNil(t, second.LimitPopup)
	require.Equal(t, ContactURL, second.LimitPopup.URL)
	require.Contains(t, second.LimitPopup.Body[0], "(5)")
	require.True(t, second.InputDisabled)
	require.Equal(t, 1, countContaining(second.Messages(), "maximum number of interactions"))

	// the server count dropping again never re-enables the input
	fb.set(func(fb *fakeBackend) { fb.count = 0 })
	c.EnforceAfterAsk(context.Background())
	c.SetInput("another")
	c.AskQuestion(context.Background())

	s := c.Snapshot()
	require.True(t, s.InputDisabled)
	require.Len(t, s.Messages(), 1)
	_, _, askCalls := fb.calls()
	require.Zero(t, askCalls)
}
