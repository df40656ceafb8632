package script

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
)

func TestParseMessageRoundTrips(t *testing.T) {
	h, _ := json.Marshal(header{MsgID: "m1", MsgType: "execute_reply"})
	ph, _ := json.Marshal(header{MsgID: "parent1"})
	meta, _ := json.Marshal(map[string]interface{}{})
	content, _ := json.Marshal(map[string]interface{}{"status": "ok"})

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write(h)
	mac.Write(ph)
	mac.Write(meta)
	mac.Write(content)
	sig := hex.EncodeToString(mac.Sum(nil))

	frames := [][]byte{[]byte("<IDS|MSG>"), []byte(sig), h, ph, meta, content}

	msg, ok := parseMessage(frames)
	if !ok {
		t.Fatal("expected parseMessage to succeed")
	}
	if msg.Header.MsgType != "execute_reply" {
		t.Fatalf("got %+v", msg.Header)
	}
	if msg.ParentHeader.MsgID != "parent1" {
		t.Fatalf("got %+v", msg.ParentHeader)
	}
	if status, _ := msg.Content["status"].(string); status != "ok" {
		t.Fatalf("got %+v", msg.Content)
	}
}

func TestParseMessageMissingDelimiter(t *testing.T) {
	_, ok := parseMessage([][]byte{[]byte("not-a-delimiter")})
	if ok {
		t.Fatal("expected failure without <IDS|MSG> delimiter")
	}
}
