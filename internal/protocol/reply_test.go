package protocol

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	r, err := Classify("req", "status:ok turn:3 end:end")
	if err != nil {
		t.Fatalf("ok reply: %v", err)
	}
	if r.Body != "turn:3" {
		t.Fatalf("body: %q", r.Body)
	}

	_, err = Classify("req", "status:error errinfo:unkown_gameid end:end")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != CodeUnknownGameID || se.Detail != "" || se.Message() != CodeUnknownGameID {
		t.Fatalf("status error: %+v", se)
	}

	_, err = Classify("req", "oops")
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if pe.Request != "req" || pe.Reply != "oops" {
		t.Fatalf("protocol error: %+v", pe)
	}
}

func TestClassify_ErrorDetail(t *testing.T) {
	reply := "status:error errinfo:game_ended [gameinfo][winner=ann] end:end"
	_, err := Classify("req", reply)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if !se.GameEnded() {
		t.Fatalf("expected game ended")
	}
	if se.Detail != "[gameinfo][winner=ann]" || se.Reply != reply {
		t.Fatalf("detail: %q", se.Detail)
	}
	if _, err := Classify("req", "status:error"); !errors.As(err, new(*ProtocolError)) {
		t.Fatalf("missing errinfo must be a protocol error: %v", err)
	}
}
