package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"

	"github.com/reliabilitypro/reliabilitypro/agent/internal/config"
)

// opcuaCollector opens a session per cycle and reads every configured node
// in a single Read request. Inspection intervals are long enough that a
// persistent subscription buys nothing.
type opcuaCollector struct {
	src   config.Source
	keys  []string
	nodes []*ua.NodeID
}

func newOPCUACollector(src config.Source) (*opcuaCollector, error) {
	keys := make([]string, 0, len(src.Points))
	for k := range src.Points {
		if !IsPoint(k) {
			return nil, fmt.Errorf("collector %q: unknown point key %q", src.ID, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	nodes := make([]*ua.NodeID, len(keys))
	for i, k := range keys {
		id, err := parseNodeID(src.Points[k])
		if err != nil {
			return nil, fmt.Errorf("collector %q: parse node id %q: %w", src.ID, src.Points[k], err)
		}
		nodes[i] = id
	}
	return &opcuaCollector{src: src, keys: keys, nodes: nodes}, nil
}

// nodeIDPrefixes are the leading tokens of the OPC UA string form. ParseNodeID
// treats anything else as a string identifier, which hides typos until the
// first Read.
var nodeIDPrefixes = []string{"ns=", "i=", "s=", "g=", "b="}

func parseNodeID(s string) (*ua.NodeID, error) {
	s = strings.TrimSpace(s)
	ok := false
	for _, p := range nodeIDPrefixes {
		if strings.HasPrefix(s, p) {
			ok = true
			break
		}
	}
	if !ok {
		return nil, errors.New("want ns=<n>;<i|s|g|b>=<id> or <i|s|g|b>=<id>")
	}
	return ua.ParseNodeID(s)
}

func (c *opcuaCollector) clientOptions() []opcua.Option {
	opts := []opcua.Option{
		opcua.SecurityModeString(normalizeSecurityMode(c.src.OPCUA.SecurityMode)),
		opcua.SecurityPolicy(normalizeSecurityPolicy(c.src.OPCUA.SecurityPolicy)),
		opcua.ApplicationName("ReliabilityPro Agent"),
		opcua.RequestTimeout(c.src.Timeout),
	}
	if c.src.Auth.Mode == "basic" && c.src.Auth.Username != "" {
		opts = append(opts, opcua.AuthUsername(c.src.Auth.Username, c.src.Auth.Password()))
	} else {
		opts = append(opts, opcua.AuthAnonymous())
	}
	return opts
}

func (c *opcuaCollector) Collect(ctx context.Context) (*Sample, error) {
	res := newSample(c.src)
	res.Design = c.src.Hydraulic

	if c.src.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.src.Timeout)
		defer cancel()
	}

	client, err := opcua.NewClient(c.src.Endpoint, c.clientOptions()...)
	if err != nil {
		res.Err = fmt.Errorf("opcua collect %q: new client: %w", c.src.ID, err)
		return res, nil
	}
	if err := client.Connect(ctx); err != nil {
		res.Err = fmt.Errorf("opcua collect %q: connect: %w", c.src.ID, err)
		slog.Warn("collector: opcua connect failed", "source", c.src.ID, "endpoint", c.src.Endpoint, "err", err)
		return res, nil
	}
	defer client.Close(context.Background())

	req := &ua.ReadRequest{
		MaxAge:             0,
		TimestampsToReturn: ua.TimestampsToReturnBoth,
		NodesToRead:        make([]*ua.ReadValueID, len(c.nodes)),
	}
	for i, id := range c.nodes {
		req.NodesToRead[i] = &ua.ReadValueID{NodeID: id, AttributeID: ua.AttributeIDValue}
	}
	resp, err := client.Read(ctx, req)
	if err != nil {
		res.Err = fmt.Errorf("opcua collect %q: read: %w", c.src.ID, err)
		return res, nil
	}

	points, err := c.decode(resp.Results)
	if err != nil {
		res.Err = fmt.Errorf("opcua collect %q: %w", c.src.ID, err)
		return res, nil
	}
	if err := FromPoints(res, points); err != nil {
		res.Err = fmt.Errorf("opcua collect %q: %w", c.src.ID, err)
	}
	return res, nil
}

// decode maps read results back to point keys. A bad status or a
// non-numeric value on any node fails the cycle.
func (c *opcuaCollector) decode(results []*ua.DataValue) (map[string]float64, error) {
	if len(results) != len(c.keys) {
		return nil, fmt.Errorf("read returned %d results for %d nodes", len(results), len(c.keys))
	}
	points := make(map[string]float64, len(c.keys))
	var bad []string
	for i, dv := range results {
		key := c.keys[i]
		if dv == nil || dv.Status != ua.StatusOK {
			bad = append(bad, key)
			continue
		}
		v, ok := variantToFloat(dv.Value)
		if !ok {
			bad = append(bad, key)
			continue
		}
		points[key] = v
	}
	if len(bad) > 0 {
		return nil, fmt.Errorf("no usable value for %s", strings.Join(bad, ", "))
	}
	return points, nil
}

func variantToFloat(v *ua.Variant) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.Value().(type) {
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case int8:
		return float64(val), true
	case uint8:
		return float64(val), true
	case int16:
		return float64(val), true
	case uint16:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

func normalizeSecurityMode(mode string) string {
	switch strings.ToLower(mode) {
	case "sign":
		return "Sign"
	case "signandencrypt", "signencrypt", "sign_and_encrypt", "sign+encrypt":
		return "SignAndEncrypt"
	default:
		return "None"
	}
}

func normalizeSecurityPolicy(policy string) string {
	if policy == "" {
		return "None"
	}
	return policy
}
