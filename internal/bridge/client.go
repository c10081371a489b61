// Package bridge delivers generated trees and class mod slots to the game.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/player-randomizer/internal/classmod"
	"github.com/danielpatrickdp/player-randomizer/internal/tree"
)

// #region methods
const (
	methodApplyTree      = "/playerrandomizer.bridge.v1.EngineBridge/ApplyTree"
	methodApplyClassMods = "/playerrandomizer.bridge.v1.EngineBridge/ApplyClassMods"
)

// #endregion methods

// #region client-struct
// Client wraps the gRPC connection to the in-game bridge.
type Client struct {
	conn    *grpc.ClientConn
	cc      grpc.ClientConnInterface
	timeout time.Duration
}

// #endregion client-struct

// #region constructor
// NewClient connects to the bridge listening on addr. A zero timeout leaves
// call deadlines to the caller's context.
func NewClient(addr string, timeout time.Duration) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn, timeout: timeout}, nil
}

// NewClientWithConn creates a Client over an existing connection.
// Used for testing without a real gRPC server.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// #endregion constructor

// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #region apply
// ApplyTree sends a full skill tree to the game.
func (c *Client) ApplyTree(ctx context.Context, t tree.Tree) error {
	if err := c.invoke(ctx, methodApplyTree, t); err != nil {
		return fmt.Errorf("apply tree rpc: %w", err)
	}
	return nil
}

// ApplyClassMods sends class mod slot assignments to the game.
func (c *Client) ApplyClassMods(ctx context.Context, a classmod.Assignment) error {
	payload := struct {
		Mods classmod.Assignment `json:"mods"`
	}{a}
	if err := c.invoke(ctx, methodApplyClassMods, payload); err != nil {
		return fmt.Errorf("apply class mods rpc: %w", err)
	}
	return nil
}

func (c *Client) invoke(ctx context.Context, method string, v any) error {
	req, err := toStruct(v)
	if err != nil {
		return err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.cc.Invoke(ctx, method, req, &emptypb.Empty{})
}

// #endregion apply

// toStruct converts v to a protobuf Struct through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("convert payload: %w", err)
	}
	return s, nil
}
