package telegram

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/tg"
	"golang.org/x/net/proxy"

	"submix/internal/collectors"
	"submix/internal/link"
	"submix/internal/logger"
)

const (
	DefaultLimit       = 500
	DefaultSessionFile = "telegram.session"

	// MessagesGetHistory serves at most this many messages per call.
	historyPage = 100
)

// TelegramCollector scrapes share-links from the history of chats the
// logged-in user has joined. The first run asks for a login code on the
// terminal; later runs reuse the session file.
type TelegramCollector struct{}

type options struct {
	apiID       int
	apiHash     string
	limit       int
	sessionFile string
	chats       []int64
	proxyURL    string
}

// parseOptions reads the collector block. YAML hands numbers over as int,
// JSON as float64, and chat ids are often quoted, so all three are taken.
func parseOptions(config map[string]interface{}) (*options, error) {
	id, _ := toInt64(config["api_id"])
	hash, _ := config["api_hash"].(string)
	hash = strings.TrimSpace(hash)
	if id <= 0 || hash == "" {
		return nil, fmt.Errorf("missing api_id or api_hash")
	}
	if id > math.MaxInt32 {
		return nil, fmt.Errorf("api_id %d out of range", id)
	}

	opts := &options{
		apiID:       int(id),
		apiHash:     hash,
		limit:       DefaultLimit,
		sessionFile: DefaultSessionFile,
	}
	if raw, ok := config["limit"]; ok {
		n, ok := toInt64(raw)
		if !ok || n <= 0 {
			return nil, fmt.Errorf("invalid limit %v", raw)
		}
		opts.limit = int(n)
	}
	if s, ok := config["session_file"].(string); ok && s != "" {
		opts.sessionFile = s
	}
	if s, ok := config["_proxy_url"].(string); ok {
		opts.proxyURL = s
	}

	chats, _ := config["chats"].([]interface{})
	for _, chat := range chats {
		id, ok := toInt64(chat)
		if !ok || id == 0 {
			return nil, fmt.Errorf("invalid chat id %v", chat)
		}
		opts.chats = append(opts.chats, id)
	}
	if len(opts.chats) == 0 {
		return nil, fmt.Errorf("missing 'chats' in collector config")
	}
	return opts, nil
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	}
	return 0, false
}

// dialer resolves the injected upstream proxy. socks5:// is the only scheme
// MTProto can ride.
func dialer(proxyURL string) (proxy.ContextDialer, error) {
	if proxyURL == "" {
		return proxy.Direct, nil
	}
	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url: %w", err)
	}
	d, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("unsupported proxy %s: %w", u.Redacted(), err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("proxy %s cannot dial with a context", u.Redacted())
	}
	return cd, nil
}

func (c *TelegramCollector) Collect(ctx context.Context, config map[string]interface{}) ([]string, error) {
	opts, err := parseOptions(config)
	if err != nil {
		return nil, err
	}
	d, err := dialer(opts.proxyURL)
	if err != nil {
		return nil, err
	}
	if opts.proxyURL != "" {
		logger.Log.Infof("Telegram using proxy: %s", opts.proxyURL)
	}

	if dir := filepath.Dir(opts.sessionFile); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create session dir: %w", err)
		}
	}

	client := telegram.NewClient(opts.apiID, opts.apiHash, telegram.Options{
		SessionStorage: &telegram.FileSessionStorage{Path: opts.sessionFile},
		Resolver: dcs.Plain(dcs.PlainOptions{
			Dial: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return d.DialContext(ctx, network, addr)
			},
		}),
	})

	var all []string
	err = client.Run(ctx, func(ctx context.Context) error {
		flow := auth.NewFlow(newTermAuth(os.Stdin, os.Stderr), auth.SendCodeOptions{})
		if err := client.Auth().IfNecessary(ctx, flow); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
		logger.Log.Info("🔓 Telegram Login Successful")

		api := client.API()
		peers, err := resolvePeers(ctx, api)
		if err != nil {
			return err
		}

		for _, chatID := range opts.chats {
			peer, found := peers[chatID]
			if !found {
				logger.Log.Warnf("Could not resolve chat ID %d (User not joined or not in recent dialogs)", chatID)
				continue
			}
			logger.Log.Infof("📥 Scraping Chat ID: %d (Limit: %d)...", chatID, opts.limit)
			links, fetched := scrapeHistory(ctx, api, peer, opts.limit)
			logger.Log.Infof("    ↳ Found %d links in %d messages.", len(links), fetched)
			all = append(all, links...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// resolvePeers maps chat ids to input peers through the recent dialogs,
// since history requests need the access hash.
func resolvePeers(ctx context.Context, api *tg.Client) (map[int64]tg.InputPeerClass, error) {
	logger.Log.Info("📇 Fetching dialog list to resolve access hashes...")
	dialogs, err := api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      100,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get dialogs: %w", err)
	}

	var chats []tg.ChatClass
	switch d := dialogs.(type) {
	case *tg.MessagesDialogs:
		chats = d.Chats
	case *tg.MessagesDialogsSlice:
		chats = d.Chats
	}
	return peerMap(chats), nil
}

// peerMap indexes chats by their bare id and by the negative form Bot API
// tools print (-100<id> for channels, -<id> for groups).
func peerMap(chats []tg.ChatClass) map[int64]tg.InputPeerClass {
	peers := make(map[int64]tg.InputPeerClass)
	for _, chat := range chats {
		switch c := chat.(type) {
		case *tg.Channel:
			p := &tg.InputPeerChannel{ChannelID: c.ID, AccessHash: c.AccessHash}
			peers[c.ID] = p
			peers[channelBotID(c.ID)] = p
		case *tg.Chat:
			p := &tg.InputPeerChat{ChatID: c.ID}
			peers[c.ID] = p
			peers[-c.ID] = p
		}
	}
	return peers
}

func channelBotID(id int64) int64 { return -1000000000000 - id }

func scrapeHistory(ctx context.Context, api *tg.Client, peer tg.InputPeerClass, limit int) ([]string, int) {
	var links []string
	fetched, offsetID := 0, 0
	for fetched < limit {
		history, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:     peer,
			Limit:    pageSize(limit, fetched),
			OffsetID: offsetID,
		})
		if err != nil {
			logger.Log.Errorf("Failed to fetch history batch: %v", err)
			break
		}

		var messages []tg.MessageClass
		switch h := history.(type) {
		case *tg.MessagesMessages:
			messages = h.Messages
		case *tg.MessagesMessagesSlice:
			messages = h.Messages
		case *tg.MessagesChannelMessages:
			messages = h.Messages
		}
		if len(messages) == 0 {
			break
		}

		found, oldest := scanMessages(messages)
		links = append(links, found...)
		fetched += len(messages)
		if oldest == 0 || oldest == offsetID {
			break
		}
		offsetID = oldest
	}
	return links, fetched
}

func pageSize(limit, fetched int) int {
	if remaining := limit - fetched; remaining < historyPage {
		return remaining
	}
	return historyPage
}

// scanMessages extracts links from a history page and returns the lowest
// message id seen, which is the offset of the next, older page.
func scanMessages(messages []tg.MessageClass) ([]string, int) {
	var links []string
	oldest := 0
	for _, msg := range messages {
		m, ok := msg.(*tg.Message)
		if !ok {
			continue
		}
		links = append(links, link.ExtractLinks(m.Message)...)
		if oldest == 0 || m.ID < oldest {
			oldest = m.ID
		}
	}
	return links, oldest
}

// termAuth answers the login flow on the terminal. Prompts go to out so a
// stdout publisher stays clean.
type termAuth struct {
	in  *bufio.Reader
	out io.Writer
}

func newTermAuth(in io.Reader, out io.Writer) termAuth {
	return termAuth{in: bufio.NewReader(in), out: out}
}

func (a termAuth) ask(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)
	text, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (a termAuth) Phone(_ context.Context) (string, error) {
	return a.ask("📞 Enter Phone Number: ")
}

func (a termAuth) Password(_ context.Context) (string, error) {
	return a.ask("🔐 Enter 2FA Password: ")
}

func (a termAuth) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	return a.ask("📩 Enter Code: ")
}

func (a termAuth) SignUp(_ context.Context) (auth.UserInfo, error) {
	first, err := a.ask("👤 Enter First Name: ")
	if err != nil {
		return auth.UserInfo{}, err
	}
	last, err := a.ask("👤 Enter Last Name: ")
	if err != nil {
		return auth.UserInfo{}, err
	}
	return auth.UserInfo{FirstName: first, LastName: last}, nil
}

func (termAuth) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return nil
}

func init() {
	collectors.Register("telegram", func() collectors.Collector {
		return &TelegramCollector{}
	})
}
