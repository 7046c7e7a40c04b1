package clash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"submix/internal/node"
	"submix/internal/parser"
)

type decodedDoc struct {
	MixedPort     int                       `yaml:"mixed-port"`
	Mode          string                    `yaml:"mode"`
	Proxies       []map[string]any          `yaml:"proxies"`
	ProxyGroups   []map[string]any          `yaml:"proxy-groups"`
	RuleProviders map[string]map[string]any `yaml:"rule-providers"`
	Rules         []string                  `yaml:"rules"`
}

func render(t *testing.T, links []string, mode Mode, detail Detail) (string, decodedDoc) {
	t.Helper()
	nodes := parser.ParseMultipleProxies(links)
	require.Len(t, nodes, len(links))

	cfg, err := Generate(nodes, mode, detail)
	require.NoError(t, err)
	out, err := ToYAML(cfg)
	require.NoError(t, err)

	var doc decodedDoc
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	return out, doc
}

func TestToYAML_EndToEnd(t *testing.T) {
	_, doc := render(t, []string{
		"vless://11111111-1111-1111-1111-111111111111@example.com:443?type=ws&security=tls#HK",
	}, Whitelist, Full)

	require.Len(t, doc.Proxies, 1)
	p := doc.Proxies[0]
	assert.Equal(t, "HK", p["name"])
	assert.Equal(t, "vless", p["type"])
	assert.Equal(t, "example.com", p["server"])
	assert.Equal(t, 443, p["port"])
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", p["uuid"])
	assert.Equal(t, "ws", p["network"])
	assert.Equal(t, true, p["tls"])
	assert.Equal(t, map[string]any{"path": "/"}, p["ws-opts"])

	var groups []string
	for _, g := range doc.ProxyGroups {
		groups = append(groups, g["name"].(string))
	}
	assert.Equal(t, []string{"Proxy", "Auto", "Fallback", "LoadBalance"}, groups)

	require.NotEmpty(t, doc.Rules)
	assert.Equal(t, "MATCH,Auto", doc.Rules[len(doc.Rules)-1])
	assert.Greater(t, len(doc.Rules), 5)
	assert.Contains(t, doc.RuleProviders, "reject")
	assert.Equal(t, 7890, doc.MixedPort)
	assert.Equal(t, "rule", doc.Mode)
}

func TestToYAML_PreservesEndpointAndSecret(t *testing.T) {
	tests := []struct {
		name      string
		link      string
		server    string
		port      int
		secretKey string
		secret    string
	}{
		{
			name:      "vless reality grpc",
			link:      "vless://22222222-2222-2222-2222-222222222222@vl.example.com:8443?type=grpc&security=reality&pbk=PUBKEY&sid=ab12&serviceName=svc&fp=chrome#A",
			server:    "vl.example.com",
			port:      8443,
			secretKey: "uuid",
			secret:    "22222222-2222-2222-2222-222222222222",
		},
		{
			name:      "hysteria",
			link:      "hysteria://hy.example.com:36712?auth=s3cr%2Bt&upmbps=20&downmbps=100&protocol=faketcp#B",
			server:    "hy.example.com",
			port:      36712,
			secretKey: "auth-str",
			secret:    "s3cr+t",
		},
		{
			name:      "hysteria2 with hop list",
			link:      "hysteria2://p%40ss@hy2.example.com:443,20000-30000/?obfs=salamander&obfs-password=ob&sni=cdn.example.com#C",
			server:    "hy2.example.com",
			port:      443,
			secretKey: "password",
			secret:    "p@ss",
		},
		{
			name:      "shadowsocks 2022",
			link:      "ss://2022-blake3-aes-256-gcm:YWJjZGVmZ2hpamtsbW5vcHFyc3R1dnd4eXoxMjM0NTY%3D@[2001:db8::1]:8388#D",
			server:    "2001:db8::1",
			port:      8388,
			secretKey: "password",
			secret:    "YWJjZGVmZ2hpamtsbW5vcHFyc3R1dnd4eXoxMjM0NTY=",
		},
		{
			name:      "shadowsocks legacy",
			link:      "ss://YWVzLTI1Ni1nY206cGFzc3dvcmQ=@ss.example.com:8388#E",
			server:    "ss.example.com",
			port:      8388,
			secretKey: "password",
			secret:    "password",
		},
		{
			name:      "trojan ws",
			link:      "trojan://tr0jan@tj.example.com:443?type=ws&path=%2Fws&host=cdn.example.com&sni=tj.example.com#F",
			server:    "tj.example.com",
			port:      443,
			secretKey: "password",
			secret:    "tr0jan",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, doc := render(t, []string{tt.link}, Whitelist, Simple)
			require.Len(t, doc.Proxies, 1)
			p := doc.Proxies[0]
			assert.Equal(t, tt.server, p["server"])
			assert.Equal(t, tt.port, p["port"])
			assert.Equal(t, tt.secret, p[tt.secretKey])
		})
	}
}

func TestToYAML_ProtocolFields(t *testing.T) {
	_, doc := render(t, []string{
		"hysteria://hy.example.com:36712?auth=a&upmbps=20&downmbps=100&protocol=faketcp#hy",
		"hysteria2://pw@hy2.example.com:443,20000-30000/?obfs=salamander&obfs-password=ob&up=30&down=200#hy2",
		"ss://YWVzLTI1Ni1nY206cGFzc3dvcmQ=@ss.example.com:8388/?plugin=obfs-local%3Bobfs%3Dhttp%3Bobfs-host%3Dbing.com#ss",
		"vless://22222222-2222-2222-2222-222222222222@vl.example.com:443?security=reality&pbk=PUBKEY&sid=ab12&flow=xtls-rprx-vision#vl",
	}, Whitelist, Simple)
	require.Len(t, doc.Proxies, 4)

	hy := doc.Proxies[0]
	assert.Equal(t, "20 Mbps", hy["up"])
	assert.Equal(t, "100 Mbps", hy["down"])
	assert.Equal(t, "faketcp", hy["protocol"])

	hy2 := doc.Proxies[1]
	assert.Equal(t, "443,20000-30000", hy2["ports"])
	assert.Equal(t, "salamander", hy2["obfs"])
	assert.Equal(t, "ob", hy2["obfs-password"])
	assert.Equal(t, "30 Mbps", hy2["up"])
	assert.Equal(t, "200 Mbps", hy2["down"])

	ss := doc.Proxies[2]
	assert.Equal(t, "aes-256-gcm", ss["cipher"])
	assert.Equal(t, "obfs", ss["plugin"])
	assert.Equal(t, map[string]any{"mode": "http", "host": "bing.com"}, ss["plugin-opts"])

	vl := doc.Proxies[3]
	assert.Equal(t, "xtls-rprx-vision", vl["flow"])
	assert.Equal(t, map[string]any{"public-key": "PUBKEY", "short-id": "ab12"}, vl["reality-opts"])
	assert.NotContains(t, vl, "network")
}

func TestToYAML_SparseBooleans(t *testing.T) {
	out, _ := render(t, []string{
		"trojan://pw@tj.example.com:443#plain",
	}, Blacklist, Simple)
	assert.NotContains(t, out, ": false")
	assert.NotContains(t, out, "skip-cert-verify")

	out, _ = render(t, []string{
		"trojan://pw@tj.example.com:443?allowInsecure=1#insecure",
	}, Blacklist, Simple)
	assert.Contains(t, out, "skip-cert-verify: true")
}

func TestToYAML_Deterministic(t *testing.T) {
	links := []string{
		"vless://11111111-1111-1111-1111-111111111111@example.com:443?type=ws&security=tls&host=cdn.example.com#HK",
		"ss://YWVzLTI1Ni1nY206cGFzc3dvcmQ=@ss.example.com:8388#SS",
		"hysteria2://pw@hy2.example.com:443#HY2",
	}
	first, _ := render(t, links, Whitelist, Full)
	second, _ := render(t, links, Whitelist, Full)
	assert.Equal(t, first, second)
}

func TestToYAML_KeyOrder(t *testing.T) {
	out, _ := render(t, []string{"trojan://pw@tj.example.com:443#T"}, Whitelist, Full)

	keys := []string{"mixed-port:", "mode:", "proxies:", "proxy-groups:", "rule-providers:", "rules:"}
	last := -1
	for _, k := range keys {
		i := strings.Index(out, "\n"+k)
		if k == "mixed-port:" {
			i = strings.Index(out, k)
		}
		require.GreaterOrEqual(t, i, 0, k)
		assert.Greater(t, i, last, k)
		last = i
	}

	// providers follow the order their rules reference them
	assert.Less(t, strings.Index(out, "  reject:"), strings.Index(out, "  private:"))
}

func TestToYAML_Errors(t *testing.T) {
	_, err := ToYAML(nil)
	assert.Error(t, err)
	assert.Panics(t, func() { ConfigToYAML(nil) })

	_, err = ToYAML(&Config{Proxies: []node.ProxyNode{{Name: "x", Server: "h", Port: 1}}})
	assert.Error(t, err)
}

func TestPlugin(t *testing.T) {
	tests := []struct {
		descriptor string
		wantName   string
		wantOpts   *pluginOpts
	}{
		{"", "", nil},
		{"obfs-local;obfs=tls;obfs-host=example.com", "obfs", &pluginOpts{Mode: "tls", Host: "example.com"}},
		{"simple-obfs;obfs=http", "obfs", &pluginOpts{Mode: "http"}},
		{"v2ray-plugin;tls;host=cdn.example.com;path=/ws", "v2ray-plugin", &pluginOpts{Mode: "websocket", Host: "cdn.example.com", Path: "/ws", TLS: true}},
		{"v2ray-plugin;mode=quic", "v2ray-plugin", &pluginOpts{Mode: "quic"}},
		{"kcptun;mode=fast", "kcptun", nil},
	}
	for _, tt := range tests {
		t.Run(tt.descriptor, func(t *testing.T) {
			name, opts := plugin(tt.descriptor)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantOpts, opts)
		})
	}
}
