package rpc

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"liquidsands.ai/internal/protocol"
	"liquidsands.ai/internal/records"
	"liquidsands.ai/internal/transport"
)

// script answers each request with the next reply and keeps what was sent.
type script struct {
	replies []string
	sent    []string
}

func (s *script) transport() transport.Func {
	return func(ctx context.Context, req string) (string, error) {
		s.sent = append(s.sent, req)
		if len(s.replies) == 0 {
			return "", io.EOF
		}
		r := s.replies[0]
		s.replies = s.replies[1:]
		return r, nil
	}
}

type memRecorder struct{ got []Exchange }

func (m *memRecorder) Record(ex Exchange) error {
	m.got = append(m.got, ex)
	return nil
}

func newTestClient(s *script, rec Recorder) *Client {
	return New(s.transport(), Options{ClientID: "C", Recorder: rec})
}

func TestLogonStoresKey(t *testing.T) {
	s := &script{replies: []string{"status:ok clientkey:K1 end:end"}}
	c := newTestClient(s, nil)
	if err := c.Logon(context.Background()); err != nil {
		t.Fatalf("logon: %v", err)
	}
	if want := "type:logon clientid:C clientinfo:" + protocol.ClientInfo + " end:end"; s.sent[0] != want {
		t.Fatalf("sent %q want %q", s.sent[0], want)
	}
	if c.ClientKey() != "K1" {
		t.Fatalf("client key: %q", c.ClientKey())
	}
}

func TestLogonMissingKeyIsProtocolError(t *testing.T) {
	s := &script{replies: []string{"status:ok end:end"}}
	c := newTestClient(s, nil)
	err := c.Logon(context.Background())
	var pe *protocol.ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("want protocol error, got %v", err)
	}
	if Kind(err) != KindProtocol {
		t.Fatalf("kind: %q", Kind(err))
	}
}

func TestRequestsCarrySession(t *testing.T) {
	s := &script{replies: []string{
		"status:ok clientkey:K end:end",
		"status:ok end:end",
	}}
	c := newTestClient(s, nil)
	ctx := context.Background()
	if err := c.Logon(ctx); err != nil {
		t.Fatalf("logon: %v", err)
	}
	if err := c.EndTurn(ctx, "4", "P", 7); err != nil {
		t.Fatalf("endturn: %v", err)
	}
	want := "type:sendgamedata clientid:C clientkey:K playerid:P data[[action][[endturn][unitid=7 gameid=4]]] end:end"
	if s.sent[1] != want {
		t.Fatalf("sent:\n got %s\nwant %s", s.sent[1], want)
	}
}

func TestCreateGameGeneratesOwnerKey(t *testing.T) {
	s := &script{replies: []string{"status:ok gameid=12 end:end", "status:ok end:end"}}
	c := newTestClient(s, nil)
	ctx := context.Background()
	id, err := c.CreateGame(ctx, "Two", "g1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != "12" {
		t.Fatalf("game id: %q", id)
	}
	key := c.OwnerKey()
	if key == "" || !strings.Contains(s.sent[0], "gameownerkey="+key) {
		t.Fatalf("owner key %q not sent in %s", key, s.sent[0])
	}
	if err := c.StartGame(ctx, id); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !strings.Contains(s.sent[1], "[[startgame][gameid=12 gameownerkey="+key+"]]") {
		t.Fatalf("startgame request: %s", s.sent[1])
	}
}

func TestStatusErrorClassified(t *testing.T) {
	s := &script{replies: []string{"status:error errinfo:unit_not_active end:end"}}
	rec := &memRecorder{}
	c := newTestClient(s, rec)
	_, err := c.Attack(context.Background(), "4", "P", 1, 2)
	var se *protocol.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("want status error, got %v", err)
	}
	if se.Code != protocol.CodeUnitNotActive {
		t.Fatalf("code: %q", se.Code)
	}
	if len(rec.got) != 1 || rec.got[0].ErrKind != KindStatus || rec.got[0].Op != "attack" {
		t.Fatalf("recorded: %+v", rec.got)
	}
}

func TestTransportErrorNotRetried(t *testing.T) {
	s := &script{}
	c := newTestClient(s, nil)
	_, err := c.GameList(context.Background())
	var te *TransportError
	if !errors.As(err, &te) || !errors.Is(err, io.EOF) {
		t.Fatalf("want transport error wrapping EOF, got %v", err)
	}
	if len(s.sent) != 1 {
		t.Fatalf("sent %d requests", len(s.sent))
	}
}

func TestAttackDamage(t *testing.T) {
	s := &script{replies: []string{"status:ok damage:3 end:end", "status:ok damage:x end:end"}}
	c := newTestClient(s, nil)
	dmg, err := c.Attack(context.Background(), "4", "P", 1, 2)
	if err != nil || dmg != 3 {
		t.Fatalf("attack: %d %v", dmg, err)
	}
	if _, err := c.Attack(context.Background(), "4", "P", 1, 2); Kind(err) != KindProtocol {
		t.Fatalf("bad damage: %v", err)
	}
}

func TestMoveEncodesPath(t *testing.T) {
	s := &script{replies: []string{"status:ok end:end"}}
	c := newTestClient(s, nil)
	path := []records.Coord{{I: 1, J: 0}, {I: 1, J: 1}}
	if err := c.Move(context.Background(), "4", "P", 9, path); err != nil {
		t.Fatalf("move: %v", err)
	}
	if !strings.Contains(s.sent[0], "[[move][unitid=9 path=[[1,0][1,1]] gameid=4]]") {
		t.Fatalf("move request: %s", s.sent[0])
	}
}

func TestGameInfoDecodes(t *testing.T) {
	s := &script{replies: []string{
		"status:ok [gameinfo][gameid=4 name=g mapid=Two gamestatus=started turn=3 activeplayer=ann playernames=[[ann][bob]] turnsTaken=[[true][false]]] end:end",
		"status:ok [gameinfo][gameid=4] end:end",
	}}
	c := newTestClient(s, nil)
	g, err := c.GameInfo(context.Background(), "4", "P", nil)
	if err != nil {
		t.Fatalf("gameinfo: %v", err)
	}
	if g.Turn != 3 || g.ActivePlayer == nil || g.ActivePlayer.Name != "ann" || len(g.PlayerNames) != 2 {
		t.Fatalf("game: %+v", g)
	}
	if _, err := c.GameInfo(context.Background(), "4", "P", nil); Kind(err) != KindProtocol {
		t.Fatalf("missing turn should be a protocol violation: %v", err)
	}
}

func TestChatReplacesBrackets(t *testing.T) {
	s := &script{replies: []string{"status:ok end:end"}}
	c := newTestClient(s, nil)
	if err := c.Chat(context.Background(), "P", ChatTarget{GameID: "4"}, "hi [all]"); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !strings.Contains(s.sent[0], "data[[chat][senderplayerid=P gameidreceiver=4 message=[hi (all)]]]") {
		t.Fatalf("chat request: %s", s.sent[0])
	}
	if err := c.Chat(context.Background(), "P", ChatTarget{}, "x"); err == nil {
		t.Fatalf("expected error without receiver")
	}
}
