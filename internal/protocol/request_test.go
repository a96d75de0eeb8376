package protocol

import "testing"

func TestRequestEncode(t *testing.T) {
	hdr := []Tag{KV("clientid", "C"), KV("clientkey", "K")}
	cases := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "no payload",
			req:  Request{Type: TypeGetData, Header: hdr},
			want: "type:getdata clientid:C clientkey:K end:end",
		},
		{
			name: "info",
			req:  Request{Type: TypeSendGameData, Header: hdr, Payload: Info("mappreview", KV("mapid", "Two"))},
			want: "type:sendgamedata clientid:C clientkey:K data[[info][infotype=mappreview mapid=Two]] end:end",
		},
		{
			name: "option",
			req:  Request{Type: TypeSendGameData, Header: hdr, Payload: Option("addplayer", KV("gameid", "4"), KV("playername", "ann"))},
			want: "type:sendgamedata clientid:C clientkey:K data[[option][[addplayer][gameid=4 playername=ann]]] end:end",
		},
		{
			name: "request with player",
			req: Request{
				Type:    TypeSendGameData,
				Header:  append(hdr[:2:2], KV("playerid", "P")),
				Payload: Query("unitinfo", KVInt("unitid", 12), KV("gameid", "4")),
			},
			want: "type:sendgamedata clientid:C clientkey:K playerid:P data[[request][rtype=unitinfo unitid=12 gameid=4]] end:end",
		},
		{
			name: "action",
			req:  Request{Type: TypeSendGameData, Header: hdr, Payload: Action("move", KVInt("unitid", 1), KV("path", List("0,1", "1,1")), KV("gameid", "4"))},
			want: "type:sendgamedata clientid:C clientkey:K data[[action][[move][unitid=1 path=[[0,1][1,1]] gameid=4]]] end:end",
		},
		{
			name: "chat",
			req:  Request{Type: TypeSendGameData, Header: hdr, Payload: Chat(KV("senderplayerid", "P"), KV("message", Wrap("hi there")))},
			want: "type:sendgamedata clientid:C clientkey:K data[[chat][senderplayerid=P message=[hi there]]] end:end",
		},
	}
	for _, tc := range cases {
		if got := tc.req.Encode(); got != tc.want {
			t.Fatalf("%s:\n got %s\nwant %s", tc.name, got, tc.want)
		}
	}
}

func TestRequestEncode_SplitsBack(t *testing.T) {
	msg := Request{Type: TypeSendGameData, Payload: Answer("tradereply", KV("gameid", "4"), KV("response", "accepted"))}.Encode()
	seg, err := Segment(msg, 0)
	if err != nil {
		t.Fatalf("segment: %v", err)
	}
	parts, err := Split(seg, true)
	if err != nil || len(parts) != 2 || parts[0] != CategoryReply {
		t.Fatalf("parts: %q %v", parts, err)
	}
	sub, err := Split(parts[1], true)
	if err != nil || len(sub) != 2 || sub[0] != "tradereply" {
		t.Fatalf("sub: %q %v", sub, err)
	}
	if ParseTags(sub[1], '=').Get("response") != "accepted" {
		t.Fatalf("response tag lost")
	}
}
