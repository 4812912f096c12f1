package notice_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ja-he/editgate/internal/notice"
	"github.com/ja-he/editgate/internal/schedule"
)

func TestBoard(t *testing.T) {
	m := schedule.NewManual(time.Unix(0, 0))
	changes := 0
	b := notice.NewBoard(m, func() { changes++ })

	b.Present(notice.Notice{Instance: "e1", Message: "first", Duration: 5 * time.Second})
	m.Advance(time.Second)
	b.Present(notice.Notice{Instance: "e2", Message: "second", Duration: 5 * time.Second})

	if got := b.Active(); len(got) != 2 || got[0].Message != "first" || got[1].Message != "second" {
		t.Fatal("unexpected active notices:", got)
	}

	m.Advance(4 * time.Second)
	if got := b.Active(); len(got) != 1 || got[0].Message != "second" {
		t.Error("first notice not dismissed after its duration:", got)
	}

	m.Advance(time.Second)
	if got := b.Active(); len(got) != 0 {
		t.Error("second notice not dismissed:", got)
	}

	if changes != 4 {
		t.Error("expected four change callbacks (two shown, two dismissed), got", changes)
	}

	t.Run("zero duration dropped", func(t *testing.T) {
		b.Present(notice.Notice{Message: "never"})
		if len(b.Active()) != 0 {
			t.Error("zero-duration notice was shown")
		}
	})
}

func TestLogPresenter(t *testing.T) {
	buf := bytes.Buffer{}
	logger := zerolog.New(&buf)
	p := notice.LogPresenter{Logger: &logger}

	p.Present(notice.Notice{Instance: "e1", Message: "no anchors", Duration: time.Second})

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, `"instance":"e1"`) || !strings.Contains(out, "no anchors") {
		t.Error("unexpected log output:", out)
	}
}

func TestFanout(t *testing.T) {
	got := []string{}
	f := notice.Fanout{
		notice.PresenterFunc(func(n notice.Notice) { got = append(got, "a:"+n.Message) }),
		notice.PresenterFunc(func(n notice.Notice) { got = append(got, "b:"+n.Message) }),
	}
	f.Present(notice.Notice{Message: "x"})
	if len(got) != 2 || got[0] != "a:x" || got[1] != "b:x" {
		t.Error("fanout did not present in order:", got)
	}
}
