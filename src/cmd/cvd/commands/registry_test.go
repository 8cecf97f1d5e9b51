package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/linuxkit/cvd/src/cmd/cvd/instances"
	"github.com/linuxkit/cvd/src/cmd/cvd/util"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	subcommands
	handled []string
}

func (h *recordingHandler) Handle(req *CommandRequest) error {
	if !h.CanHandle(req) {
		return mismatch(h, req)
	}
	h.handled = append(h.handled, req.Subcommand())
	return nil
}

func (h *recordingHandler) SummaryHelp() string          { return "records" }
func (h *recordingHandler) DetailedHelp([]string) string { return "recording help" }
func (h *recordingHandler) ShouldInterceptHelp() bool    { return true }

func request(t *testing.T, args ...string) *CommandRequest {
	t.Helper()
	req, err := NewCommandRequest(args, util.Envs{})
	require.NoError(t, err)
	return req
}

func TestRegistryFirstMatchWins(t *testing.T) {
	first := &recordingHandler{subcommands: subcommands{"x", "y"}}
	second := &recordingHandler{subcommands: subcommands{"y", "z"}}
	r := NewRegistry(&bytes.Buffer{})
	r.Register(first)
	r.Register(second)

	require.NoError(t, r.Execute(request(t, "y")))
	require.NoError(t, r.Execute(request(t, "z")))
	assert.Equal(t, []string{"y"}, first.handled)
	assert.Equal(t, []string{"z"}, second.handled)
	assert.Equal(t, []string{"x", "y", "z"}, r.CmdList())
}

func TestRegistryUnrecognized(t *testing.T) {
	r := NewRegistry(&bytes.Buffer{})
	r.Register(&recordingHandler{subcommands: subcommands{"x"}})
	err := r.Execute(request(t, "bogus"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnrecognizedCommand))
	assert.Contains(t, err.Error(), `"bogus"`)
}

func TestRegistryHelpInterception(t *testing.T) {
	var out bytes.Buffer
	h := &recordingHandler{subcommands: subcommands{"x"}}
	r := NewRegistry(&out)
	r.Register(h)

	require.NoError(t, r.Execute(request(t, "x", "--help")))
	assert.Empty(t, h.handled)
	assert.Equal(t, "recording help\n", out.String())
}

func TestHandleRejectsForeignRequest(t *testing.T) {
	db := instances.NewInstanceDatabase(instances.NewMemoryStorage())
	r := NewDefaultRegistry(db, &bytes.Buffer{})
	req := request(t, "definitely-not-a-command")
	for _, h := range r.Handlers() {
		err := h.Handle(req)
		assert.True(t, errors.Is(err, ErrRequestMismatch), "%T: %v", h, err)
	}
}

func TestDefaultRegistryOrder(t *testing.T) {
	db := instances.NewInstanceDatabase(instances.NewMemoryStorage())
	r := NewDefaultRegistry(db, &bytes.Buffer{})
	var order []string
	for _, h := range r.Handlers() {
		if names := h.CmdList(); len(names) > 0 {
			order = append(order, names[0])
		} else {
			order = append(order, "cmd-list")
		}
	}
	assert.Equal(t, []string{"cmd-list", "help", "version", "clear", "create", "fleet", "remove", "status"}, order)
}

func TestCmdList(t *testing.T) {
	var out bytes.Buffer
	db := instances.NewInstanceDatabase(instances.NewMemoryStorage())
	r := NewDefaultRegistry(db, &out)

	require.NoError(t, r.Execute(request(t, "cmd-list")))
	var got map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	names := strings.Split(got["subcmd"], ",")
	assert.Equal(t, []string{"clear", "create", "fleet", "help", "remove", "rm", "status", "version"}, names)
	assert.NotContains(t, names, "cmd-list")
}
