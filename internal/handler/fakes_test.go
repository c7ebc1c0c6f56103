package handler

import (
	"context"
	"errors"
	"time"

	"github.com/flowloom/engine/internal/capability"
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

// fakeStore is a minimal in-memory capability.Store for handler tests that
// only need credential lookup.
type fakeStore struct {
	credentials map[string]*types.Credential
}

func newFakeStore() *fakeStore {
	return &fakeStore{credentials: map[string]*types.Credential{}}
}

func (s *fakeStore) withCredential(id string, data value.Value) *fakeStore {
	s.credentials[id] = &types.Credential{ID: id, Data: data}
	return s
}

func (s *fakeStore) GetCredential(ctx context.Context, id string) (*types.Credential, error) {
	cred, ok := s.credentials[id]
	if !ok {
		return nil, errors.New("credential not found")
	}
	return cred, nil
}

func (s *fakeStore) GetMcpServer(ctx context.Context, id string) (*types.McpServer, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeStore) SaveExecution(ctx context.Context, record *types.ExecutionRecord) error {
	return nil
}

func (s *fakeStore) UpdateExecutionStatus(ctx context.Context, id string, status types.Status, results []types.NodeResult, endTime *time.Time, snapshot *types.Snapshot) error {
	return nil
}

func (s *fakeStore) GetExecution(ctx context.Context, id string) (*types.ExecutionRecord, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeStore) FindWaitingBySlackTimestamp(ctx context.Context, ts string) (*types.ExecutionRecord, error) {
	return nil, errors.New("not implemented")
}

// fakeClock sleeps instantly and records the requested duration.
type fakeClock struct {
	slept     time.Duration
	sleepErr  error
	nowResult time.Time
}

func (c *fakeClock) NowUTC() time.Time { return c.nowResult }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.slept = d
	return c.sleepErr
}

// fakeHTTPClient returns a canned response or error for httpRequestHandler tests.
type fakeHTTPClient struct {
	statusCode  int
	respHeaders map[string]string
	respBody    []byte
	err         error

	lastMethod  string
	lastURL     string
	lastHeaders map[string]string
	lastAuth    *capability.BasicAuth
	lastBody    []byte
}

func (c *fakeHTTPClient) Send(ctx context.Context, method, url string, headers map[string]string, basicAuth *capability.BasicAuth, body []byte) (int, map[string]string, []byte, error) {
	c.lastMethod = method
	c.lastURL = url
	c.lastHeaders = headers
	c.lastAuth = basicAuth
	c.lastBody = body
	if c.err != nil {
		return 0, nil, nil, c.err
	}
	return c.statusCode, c.respHeaders, c.respBody, nil
}

// fakeJsRunner and fakePyRunner return a canned result or error.
type fakeScriptRunner struct {
	result    value.Value
	err       error
	lastCode  string
	lastInput value.Value
}

func (r *fakeScriptRunner) Run(ctx context.Context, code string, input value.Value) (value.Value, error) {
	r.lastCode = code
	r.lastInput = input
	if r.err != nil {
		return value.Null(), r.err
	}
	return r.result, nil
}

// fakeFileIO backs read-write-file tests without touching local disk.
type fakeFileIO struct {
	entries []capability.FileEntry
	readErr error

	writeErr      error
	writtenPath   string
	writtenData   []byte
	writtenAppend bool
}

func (f *fakeFileIO) ReadGlob(pattern string) ([]capability.FileEntry, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.entries, nil
}

func (f *fakeFileIO) WriteFile(path string, data []byte, appendMode bool) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writtenPath = path
	f.writtenData = data
	f.writtenAppend = appendMode
	return nil
}
