// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/bvk/chatcmd"
	"github.com/bvkgo/kv/kvmemdb"
)

var testingSecrets *Secrets

func checkSecrets() bool {
	if testingSecrets != nil {
		return true
	}
	data, err := os.ReadFile("telegram-creds.json")
	if err != nil {
		return false
	}
	s := new(Secrets)
	if err := json.Unmarshal(data, s); err != nil {
		return false
	}
	if err := s.Check(); err != nil {
		return false
	}
	testingSecrets = s
	return true
}

func TestSecretsCheck(t *testing.T) {
	tests := []struct {
		secrets Secrets
		ok      bool
	}{
		{Secrets{BotToken: "t", OwnerID: "o"}, true},
		{Secrets{OwnerID: "o"}, false},
		{Secrets{BotToken: "t"}, false},
		{Secrets{BotToken: "t", OwnerID: "o", OtherIDs: []string{"o"}}, false},
		{Secrets{BotToken: "t", OwnerID: "o", AdminID: "a", OtherIDs: []string{"a"}}, false},
		{Secrets{BotToken: "t", OwnerID: "o", OtherIDs: []string{""}}, false},
	}
	for i, test := range tests {
		if err := test.secrets.Check(); (err == nil) != test.ok {
			t.Errorf("test %d: want ok=%v, got %v", i, test.ok, err)
		}
	}
}

func TestSecretsAuthorized(t *testing.T) {
	s := &Secrets{BotToken: "t", OwnerID: "owner", AdminID: "admin", OtherIDs: []string{"friend"}}
	for _, user := range []string{"owner", "admin", "friend"} {
		if !s.Authorized(user) {
			t.Errorf("want %s to be authorized", user)
		}
	}
	for _, user := range []string{"", "stranger"} {
		if s.Authorized(user) {
			t.Errorf("want %q to be unauthorized", user)
		}
	}
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	if !checkSecrets() {
		t.Skip("no credentials")
		return
	}

	registry := chatcmd.NewRegistry()
	uptime := chatcmd.NewCommand("uptime").Describe("Prints bot uptime")
	start := time.Now()
	uptime.Handle(func(ctx context.Context, args chatcmd.ParsedArgs, extra ...any) (any, error) {
		return time.Since(start).Round(time.Second).String(), nil
	})
	if err := registry.Add(uptime); err != nil {
		t.Fatal(err)
	}
	registry.SetHelpHandler(nil)

	db := kvmemdb.New()
	c, err := New(ctx, db, testingSecrets, registry)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			t.Fatal(err)
		}
	}()

	t.Logf("Authorized on account %s with owner %s", c.BotUserName(), c.OwnerUserName())

	if err := c.SendMessage(ctx, time.Now(), "hello"); err != nil {
		t.Fatal(err)
	}
}
