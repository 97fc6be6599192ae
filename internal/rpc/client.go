package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/RowanDark/xorcist/internal/cipher"
	"github.com/RowanDark/xorcist/internal/hexcodec"
	"github.com/RowanDark/xorcist/internal/keyfinder"
)

// OperationInfo describes one operation offered by a server.
type OperationInfo struct {
	Name        string
	Type        string
	Description string
	Reversible  bool
}

// Client is a typed wrapper around a connection to the cipher service.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to target. Without options the connection is plaintext.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

// NewClient wraps an existing connection.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, req map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Execute runs ops over input on the server. With reverse set the server
// inverts the pipeline first.
func (c *Client) Execute(ctx context.Context, input []byte, ops []cipher.OperationConfig, reverse bool) ([]byte, error) {
	list := make([]any, len(ops))
	for i, op := range ops {
		entry := map[string]any{"name": op.Name}
		if len(op.Parameters) > 0 {
			entry["parameters"] = map[string]any(op.Parameters)
		}
		list[i] = entry
	}
	out, err := c.invoke(ctx, methodExecute, map[string]any{
		"input_hex":  hexcodec.EncodeToString(input),
		"operations": list,
		"reverse":    reverse,
	})
	if err != nil {
		return nil, err
	}
	return decodeField(out, "output_hex")
}

// RunRecipe runs a recipe known to the server over input.
func (c *Client) RunRecipe(ctx context.Context, name string, input []byte) ([]byte, error) {
	out, err := c.invoke(ctx, methodExecute, map[string]any{
		"input_hex": hexcodec.EncodeToString(input),
		"recipe":    name,
	})
	if err != nil {
		return nil, err
	}
	return decodeField(out, "output_hex")
}

// Crack asks the server to recover the single-byte key of ciphertextHex.
func (c *Client) Crack(ctx context.Context, ciphertextHex string) (keyfinder.Candidate, error) {
	out, err := c.invoke(ctx, methodCrack, map[string]any{"ciphertext_hex": ciphertextHex})
	if err != nil {
		return keyfinder.Candidate{}, err
	}
	return candidateFrom(out)
}

// Detect asks the server which of hexLines is single-byte XOR ciphertext.
func (c *Client) Detect(ctx context.Context, hexLines []string) (keyfinder.Detection, error) {
	lines := make([]any, len(hexLines))
	for i, l := range hexLines {
		lines[i] = l
	}
	out, err := c.invoke(ctx, methodCrack, map[string]any{"lines": lines})
	if err != nil {
		return keyfinder.Detection{}, err
	}
	cand, err := candidateFrom(out)
	if err != nil {
		return keyfinder.Detection{}, err
	}
	return keyfinder.Detection{
		Line:      int(out.GetFields()["line"].GetNumberValue()),
		Candidate: cand,
	}, nil
}

// ListOperations returns the operations registered on the server.
func (c *Client) ListOperations(ctx context.Context) ([]OperationInfo, error) {
	out, err := c.invoke(ctx, methodListOperations, map[string]any{})
	if err != nil {
		return nil, err
	}
	values := out.GetFields()["operations"].GetListValue().GetValues()
	ops := make([]OperationInfo, 0, len(values))
	for _, v := range values {
		f := v.GetStructValue().GetFields()
		ops = append(ops, OperationInfo{
			Name:        f["name"].GetStringValue(),
			Type:        f["type"].GetStringValue(),
			Description: f["description"].GetStringValue(),
			Reversible:  f["reversible"].GetBoolValue(),
		})
	}
	return ops, nil
}

// Identify asks the server what input looks like and how each guess
// decodes, most likely first.
func (c *Client) Identify(ctx context.Context, input []byte) ([]cipher.DecodeResult, error) {
	out, err := c.invoke(ctx, methodIdentify, map[string]any{"input_hex": hexcodec.EncodeToString(input)})
	if err != nil {
		return nil, err
	}
	values := out.GetFields()["results"].GetListValue().GetValues()
	results := make([]cipher.DecodeResult, 0, len(values))
	for _, v := range values {
		entry := v.GetStructValue()
		f := entry.GetFields()
		r := cipher.DecodeResult{
			Detection: cipher.DetectionResult{
				Encoding:   f["encoding"].GetStringValue(),
				Confidence: f["confidence"].GetNumberValue(),
				Reasoning:  f["reasoning"].GetStringValue(),
				Operation:  f["operation"].GetStringValue(),
			},
			Error: f["error"].GetStringValue(),
		}
		if _, ok := f["decoded_hex"]; ok {
			if r.Decoded, err = decodeField(entry, "decoded_hex"); err != nil {
				return nil, err
			}
			r.Success = true
		}
		results = append(results, r)
	}
	return results, nil
}

// Health reports the serving status of the cipher service.
func (c *Client) Health(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

func decodeField(s *structpb.Struct, name string) ([]byte, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return nil, fmt.Errorf("response missing %s", name)
	}
	b, err := hexcodec.DecodeString(v.GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return b, nil
}

func candidateFrom(s *structpb.Struct) (keyfinder.Candidate, error) {
	plaintext, err := decodeField(s, "plaintext_hex")
	if err != nil {
		return keyfinder.Candidate{}, err
	}
	f := s.GetFields()
	return keyfinder.Candidate{
		Key:       byte(f["key"].GetNumberValue()),
		Plaintext: plaintext,
		Score:     int(f["score"].GetNumberValue()),
	}, nil
}
