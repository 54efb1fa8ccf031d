// Package client calls the meetings gRPC service and exposes it with the same
// method set as the in-process usecase.
package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xilidan/meetings/services/meetings/entity"
	"github.com/xilidan/meetings/services/meetings/rpc"
)

type tokenKey struct{}

// WithToken makes calls made with ctx authenticate as token instead of the
// client's own token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

type Client struct {
	conn  *grpc.ClientConn
	token string
}

// New dials address. When token is non-empty it is sent as a bearer token on every call.
func New(address, token string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(rpc.MaxMessageSize),
			grpc.MaxCallSendMsgSize(rpc.MaxMessageSize),
		),
	}, opts...)

	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc connection: %w", err)
	}

	return &Client{
		conn:  conn,
		token: token,
	}, nil
}

func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) Ingest(ctx context.Context, req *entity.IngestRequest) (*entity.Meeting, error) {
	var m entity.Meeting
	_, err := c.invoke(ctx, rpc.MethodIngest, rpc.IngestRequest{
		Title:    req.Title,
		Source:   req.Source,
		Filename: req.Filename,
		MimeType: req.MimeType,
		Audio:    req.Audio,
	}, &m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Process returns the failed meeting together with a ServiceError, like the usecase does.
func (c *Client) Process(ctx context.Context, id string) (*entity.Meeting, error) {
	var m entity.Meeting
	failed, err := c.invoke(ctx, rpc.MethodProcess, rpc.IDRequest{ID: id}, &m)
	if err != nil {
		return failed, err
	}
	return &m, nil
}

func (c *Client) Get(ctx context.Context, id string) (*entity.Meeting, error) {
	var m entity.Meeting
	if _, err := c.invoke(ctx, rpc.MethodGet, rpc.IDRequest{ID: id}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) ListRecent(ctx context.Context, limit int) ([]*entity.Meeting, error) {
	var out rpc.ListResponse
	if _, err := c.invoke(ctx, rpc.MethodListRecent, rpc.ListRequest{Limit: limit}, &out); err != nil {
		return nil, err
	}
	if out.Meetings == nil {
		out.Meetings = []*entity.Meeting{}
	}
	return out.Meetings, nil
}

func (c *Client) ExportTasks(ctx context.Context, id string) ([]entity.TaskSummary, error) {
	var out rpc.ExportResponse
	if _, err := c.invoke(ctx, rpc.MethodExportTasks, rpc.IDRequest{ID: id}, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

// invoke performs one unary call. On failure it returns the meeting attached
// to the status, if any, and the rebuilt entity error.
func (c *Client) invoke(ctx context.Context, method string, in, out any) (*entity.Meeting, error) {
	req, err := rpc.Encode(in)
	if err != nil {
		return nil, err
	}
	token := c.token
	if t, ok := ctx.Value(tokenKey{}).(string); ok && t != "" {
		token = t
	}
	if token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
	}

	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, req, resp); err != nil {
		return rpc.FromStatus(err)
	}
	if err := rpc.Decode(resp, out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil, nil
}
