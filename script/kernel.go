// Package script implements the engine.ScriptExecutor contract against a
// running Jupyter-protocol kernel, for non-Formula code cells (Python and
// other script languages) — spec §6 "Script-language executor contract
// (consumed)". Grounded on broyeztony-karl/kernel/kernel.go's ZeroMQ
// message framing and HMAC signing, inverted from kernel (server) to
// client: we connect to a kernel's shell channel, send execute_request,
// and surface the eventual reply as a ScriptResult.
package script

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-zeromq/zmq4"

	"go.uber.org/zap"
)

// ConnectionInfo is the Jupyter kernel connection-file shape — kept
// field-for-field from the teacher's kernel.go so a real jupyter_client
// connection file round-trips unmodified.
type ConnectionInfo struct {
	SignatureScheme string `json:"signature_scheme"`
	Transport       string `json:"transport"`
	IP              string `json:"ip"`
	Key             string `json:"key"`
	ShellPort       int    `json:"shell_port"`
	IOPubPort       int    `json:"iopub_port"`
	ControlPort     int    `json:"control_port"`
	StdinPort       int    `json:"stdin_port"`
	HBPort          int    `json:"hb_port"`
}

type header struct {
	MsgID    string `json:"msg_id"`
	Username string `json:"username"`
	Session  string `json:"session"`
	Date     string `json:"date"`
	MsgType  string `json:"msg_type"`
	Version  string `json:"version"`
}

type message struct {
	Header       header                 `json:"header"`
	ParentHeader header                 `json:"parent_header"`
	Metadata     map[string]interface{} `json:"metadata"`
	Content      map[string]interface{} `json:"content"`
}

// ResultCallback receives a completed evaluation's output. The caller
// (typically cmd/gridctl) is expected to forward it into
// engine.GridController.CalculationComplete.
type ResultCallback func(token string, success bool, outputText, errText string)

// KernelExecutor implements engine.ScriptExecutor over a zmq4 Dealer
// socket connected to a kernel's shell channel. One execute_request is
// sent per Run call; the reply is correlated back to its token
// (msg_id) by a background receive loop.
type KernelExecutor struct {
	cfg     ConnectionInfo
	session string
	shell   zmq4.Socket
	iopub   zmq4.Socket
	log     *zap.Logger

	onResult ResultCallback

	mu      sync.Mutex
	pending map[string]bool
	stdout  map[string]string
	stderr  map[string]string

	seq int64
}

// NewKernelExecutor dials a kernel described by cfg. onResult is called
// exactly once per Run token, from a background goroutine.
func NewKernelExecutor(ctx context.Context, cfg ConnectionInfo, onResult ResultCallback, log *zap.Logger) (*KernelExecutor, error) {
	if log == nil {
		log = zap.NewNop()
	}
	shell := zmq4.NewDealer(ctx)
	addr := fmt.Sprintf("%s://%s:%d", cfg.Transport, cfg.IP, cfg.ShellPort)
	if err := shell.Dial(addr); err != nil {
		return nil, fmt.Errorf("script: dialing shell channel %s: %w", addr, err)
	}

	iopub := zmq4.NewSub(ctx)
	iopubAddr := fmt.Sprintf("%s://%s:%d", cfg.Transport, cfg.IP, cfg.IOPubPort)
	if err := iopub.Dial(iopubAddr); err != nil {
		shell.Close()
		return nil, fmt.Errorf("script: dialing iopub channel %s: %w", iopubAddr, err)
	}
	if err := iopub.SetOption(zmq4.OptionSubscribe, ""); err != nil {
		shell.Close()
		iopub.Close()
		return nil, fmt.Errorf("script: subscribing iopub: %w", err)
	}

	k := &KernelExecutor{
		cfg:      cfg,
		session:  fmt.Sprintf("sheetcore-%d", time.Now().UnixNano()),
		shell:    shell,
		iopub:    iopub,
		log:      log,
		onResult: onResult,
		pending:  make(map[string]bool),
		stdout:   make(map[string]string),
		stderr:   make(map[string]string),
	}
	go k.receiveLoop()
	go k.receiveIOPubLoop()
	return k, nil
}

// receiveIOPubLoop accumulates "stream" broadcast text (stdout/stderr)
// per parent msg_id, ahead of the matching execute_reply arriving on the
// shell channel — spec §6's ScriptResult carries this as Stdout/Stderr.
func (k *KernelExecutor) receiveIOPubLoop() {
	for {
		zmsg, err := k.iopub.Recv()
		if err != nil {
			k.log.Warn("script: iopub recv failed, stopping receive loop", zap.Error(err))
			return
		}
		msg, ok := parseMessage(zmsg.Frames)
		if !ok || msg.Header.MsgType != "stream" {
			continue
		}
		name, _ := msg.Content["name"].(string)
		text, _ := msg.Content["text"].(string)
		parentID := msg.ParentHeader.MsgID

		k.mu.Lock()
		if name == "stderr" {
			k.stderr[parentID] += text
		} else {
			k.stdout[parentID] += text
		}
		k.mu.Unlock()
	}
}

// Run sends an execute_request for the given language/source and returns
// its msg_id as the ScriptToken — spec §6 "run_python(source) → js_value
// returns an opaque token."
func (k *KernelExecutor) Run(ctx context.Context, language, source string) (string, error) {
	id := fmt.Sprintf("%s-%d", k.session, atomic.AddInt64(&k.seq, 1))

	msg := message{
		Header: header{
			MsgID:    id,
			Username: "sheetcore",
			Session:  k.session,
			MsgType:  "execute_request",
			Version:  "5.3",
			Date:     time.Now().Format(time.RFC3339),
		},
		Metadata: map[string]interface{}{},
		Content: map[string]interface{}{
			"code":             source,
			"silent":           false,
			"store_history":    true,
			"user_expressions": map[string]interface{}{},
			"allow_stdin":      false,
			"language":         language,
		},
	}

	k.mu.Lock()
	k.pending[id] = true
	k.mu.Unlock()

	if err := k.send(msg); err != nil {
		k.mu.Lock()
		delete(k.pending, id)
		k.mu.Unlock()
		return "", err
	}
	return id, nil
}

func (k *KernelExecutor) send(msg message) error {
	headerBytes, _ := json.Marshal(msg.Header)
	parentBytes, _ := json.Marshal(msg.ParentHeader)
	metaBytes, _ := json.Marshal(msg.Metadata)
	contentBytes, _ := json.Marshal(msg.Content)

	mac := hmac.New(sha256.New, []byte(k.cfg.Key))
	mac.Write(headerBytes)
	mac.Write(parentBytes)
	mac.Write(metaBytes)
	mac.Write(contentBytes)
	signature := hex.EncodeToString(mac.Sum(nil))

	frames := [][]byte{
		[]byte("<IDS|MSG>"),
		[]byte(signature),
		headerBytes,
		parentBytes,
		metaBytes,
		contentBytes,
	}
	return k.shell.Send(zmq4.NewMsgFrom(frames...))
}

// receiveLoop reads execute_reply messages off the shell socket and
// dispatches them to onResult. A malformed frame, or a message of any
// other type, is skipped without logging and the loop goes on; a receive
// error is logged and ends the loop.
func (k *KernelExecutor) receiveLoop() {
	for {
		zmsg, err := k.shell.Recv()
		if err != nil {
			k.log.Warn("script: shell recv failed, stopping receive loop", zap.Error(err))
			return
		}
		msg, ok := parseMessage(zmsg.Frames)
		if !ok {
			continue
		}
		if msg.Header.MsgType != "execute_reply" {
			continue
		}

		id := msg.ParentHeader.MsgID
		k.mu.Lock()
		delete(k.pending, id)
		out := k.stdout[id]
		delete(k.stdout, id)
		errOut := k.stderr[id]
		delete(k.stderr, id)
		k.mu.Unlock()

		status, _ := msg.Content["status"].(string)
		if status == "ok" {
			if k.onResult != nil {
				k.onResult(id, true, out, errOut)
			}
			continue
		}
		evalue, _ := msg.Content["evalue"].(string)
		if errOut != "" {
			evalue = errOut + "\n" + evalue
		}
		if k.onResult != nil {
			k.onResult(id, false, out, evalue)
		}
	}
}

func parseMessage(frames [][]byte) (*message, bool) {
	delim := -1
	for i, f := range frames {
		if string(f) == "<IDS|MSG>" {
			delim = i
			break
		}
	}
	if delim == -1 || len(frames) < delim+6 {
		return nil, false
	}
	var m message
	if err := json.Unmarshal(frames[delim+2], &m.Header); err != nil {
		return nil, false
	}
	if err := json.Unmarshal(frames[delim+3], &m.ParentHeader); err != nil {
		return nil, false
	}
	_ = json.Unmarshal(frames[delim+4], &m.Metadata)
	_ = json.Unmarshal(frames[delim+5], &m.Content)
	return &m, true
}

// Close releases both sockets.
func (k *KernelExecutor) Close() error {
	err1 := k.shell.Close()
	err2 := k.iopub.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
