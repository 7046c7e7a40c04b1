package telegram

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"submix/internal/collectors"
)

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions(map[string]interface{}{
		"api_id":   12345,
		"api_hash": "abc",
		"chats":    []interface{}{-1001234567890, int64(42), float64(-7), " -100987 "},
	})
	require.NoError(t, err)
	assert.Equal(t, 12345, opts.apiID)
	assert.Equal(t, "abc", opts.apiHash)
	assert.Equal(t, DefaultLimit, opts.limit)
	assert.Equal(t, DefaultSessionFile, opts.sessionFile)
	assert.Equal(t, []int64{-1001234567890, 42, -7, -100987}, opts.chats)
	assert.Empty(t, opts.proxyURL)

	opts, err = parseOptions(map[string]interface{}{
		"api_id":       "777",
		"api_hash":     "abc",
		"limit":        float64(50),
		"session_file": "data/tg.session",
		"chats":        []interface{}{1},
		"_proxy_url":   "socks5://127.0.0.1:1080",
	})
	require.NoError(t, err)
	assert.Equal(t, 777, opts.apiID)
	assert.Equal(t, 50, opts.limit)
	assert.Equal(t, "data/tg.session", opts.sessionFile)
	assert.Equal(t, "socks5://127.0.0.1:1080", opts.proxyURL)
}

func TestParseOptions_Invalid(t *testing.T) {
	chats := []interface{}{1}
	tests := []struct {
		name   string
		config map[string]interface{}
		want   string
	}{
		{"missing api_id", map[string]interface{}{"api_hash": "abc", "chats": chats}, "api_id or api_hash"},
		{"missing api_hash", map[string]interface{}{"api_id": 1, "chats": chats}, "api_id or api_hash"},
		{"blank api_hash", map[string]interface{}{"api_id": 1, "api_hash": "  ", "chats": chats}, "api_id or api_hash"},
		{"api_id not a number", map[string]interface{}{"api_id": "x1", "api_hash": "abc", "chats": chats}, "api_id or api_hash"},
		{"api_id too large", map[string]interface{}{"api_id": int64(1) << 40, "api_hash": "abc", "chats": chats}, "out of range"},
		{"fractional chat", map[string]interface{}{"api_id": 1, "api_hash": "abc", "chats": []interface{}{1.5}}, "invalid chat id"},
		{"username chat", map[string]interface{}{"api_id": 1, "api_hash": "abc", "chats": []interface{}{"@channel"}}, "invalid chat id"},
		{"zero chat", map[string]interface{}{"api_id": 1, "api_hash": "abc", "chats": []interface{}{0}}, "invalid chat id"},
		{"no chats", map[string]interface{}{"api_id": 1, "api_hash": "abc"}, "missing 'chats'"},
		{"bad limit", map[string]interface{}{"api_id": 1, "api_hash": "abc", "chats": chats, "limit": -3}, "invalid limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseOptions(tt.config)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestCollect_InvalidConfig(t *testing.T) {
	c, err := collectors.Get("telegram")
	require.NoError(t, err)

	_, err = c.Collect(context.Background(), map[string]interface{}{"chats": []interface{}{1}})
	assert.ErrorContains(t, err, "api_id or api_hash")
}

func TestDialer(t *testing.T) {
	d, err := dialer("")
	require.NoError(t, err)
	assert.NotNil(t, d)

	d, err = dialer("socks5://user:pw@127.0.0.1:1080")
	require.NoError(t, err)
	assert.NotNil(t, d)

	_, err = dialer("ftp://127.0.0.1:21")
	assert.Error(t, err)
}

func TestPeerMap(t *testing.T) {
	peers := peerMap([]tg.ChatClass{
		&tg.Channel{ID: 1234567890, AccessHash: 99},
		&tg.Chat{ID: 55},
		&tg.ChatForbidden{ID: 77},
	})

	channel := &tg.InputPeerChannel{ChannelID: 1234567890, AccessHash: 99}
	assert.Equal(t, channel, peers[1234567890])
	assert.Equal(t, channel, peers[-1001234567890])
	assert.Equal(t, &tg.InputPeerChat{ChatID: 55}, peers[55])
	assert.Equal(t, &tg.InputPeerChat{ChatID: 55}, peers[-55])
	assert.NotContains(t, peers, int64(77))
	assert.Len(t, peers, 4)
}

func TestScanMessages(t *testing.T) {
	links, oldest := scanMessages([]tg.MessageClass{
		&tg.Message{ID: 30, Message: "new nodes:\ntrojan://pw@a.example.com:443#Hong Kong 01"},
		&tg.MessageService{ID: 5},
		&tg.Message{ID: 12, Message: "mirror ss://aes-256-gcm:pw@b.example.com:8388#B, enjoy"},
		&tg.Message{ID: 20, Message: "no links here"},
	})
	assert.Equal(t, []string{
		"trojan://pw@a.example.com:443#Hong Kong 01",
		"ss://aes-256-gcm:pw@b.example.com:8388#B",
	}, links)
	assert.Equal(t, 12, oldest)

	links, oldest = scanMessages([]tg.MessageClass{&tg.MessageEmpty{ID: 3}})
	assert.Empty(t, links)
	assert.Zero(t, oldest)
}

func TestPageSize(t *testing.T) {
	assert.Equal(t, 100, pageSize(500, 0))
	assert.Equal(t, 100, pageSize(500, 400))
	assert.Equal(t, 30, pageSize(230, 200))
	assert.Equal(t, 7, pageSize(7, 0))
}

func TestTermAuth(t *testing.T) {
	var out bytes.Buffer
	a := newTermAuth(strings.NewReader("+15550100\n 12345 \nAda\nLovelace"), &out)
	ctx := context.Background()

	phone, err := a.Phone(ctx)
	require.NoError(t, err)
	assert.Equal(t, "+15550100", phone)

	code, err := a.Code(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "12345", code)

	info, err := a.SignUp(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", info.FirstName)
	assert.Equal(t, "Lovelace", info.LastName)

	_, err = a.Password(ctx)
	assert.Error(t, err)

	assert.Contains(t, out.String(), "Enter Phone Number")
	assert.Contains(t, out.String(), "Enter Code")
}
