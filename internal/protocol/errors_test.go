package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		CodeInvalidClientKey,
		CodeUnknownGameID,
		CodeGameNameNotUnique,
		CodePlayerNameExists,
		CodeInvalidOwnerKey,
		CodeNotEnoughPlayers,
		CodeUnknownMapPreview,
		CodeNoReceiverFound,
		CodeInvalidPlayerID,
		CodeGameEnded,
		CodeUnitNotActive,
		CodeUnknownUnitID,
		CodeNotTradePartner,
		CodeUnknownTradeResponse,
		CodeTradeAmountNotPossible,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("unknown_gameid") {
		t.Fatalf("expected unknown code rejected")
	}
}

func TestRecoverable(t *testing.T) {
	if !Recoverable(CodeUnknownGameID) || !Recoverable(CodeGameEnded) {
		t.Fatalf("lobby codes must be recoverable")
	}
	if Recoverable(CodeUnitNotActive) || Recoverable("") {
		t.Fatalf("rule errors are not lobby-recoverable")
	}
}
