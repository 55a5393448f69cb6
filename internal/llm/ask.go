package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/klineprompt/internal/batch"
	"github.com/newthinker/klineprompt/internal/core"
	"github.com/newthinker/klineprompt/internal/dataset"
	"github.com/newthinker/klineprompt/internal/storage/record"
	"go.uber.org/zap"
)

// TokenRecorder receives token usage per call.
type TokenRecorder interface {
	RecordTokens(provider string, input, output int)
}

// Archiver mirrors a written file.
type Archiver interface {
	Copy(ctx context.Context, path string) error
}

// Asker sends each symbol's prompt file to a provider and stores the reply
// verbatim next to it.
type Asker struct {
	Provider     Provider
	Resolver     dataset.Resolver
	SystemPrompt string
	MaxTokens    int
	// Timeout bounds one provider call. Zero means no extra bound.
	Timeout time.Duration
	// Tokens, Archive and Logger are optional.
	Tokens  TokenRecorder
	Archive Archiver
	Logger  *zap.Logger
}

// Ask reads the prompt of symbol, queries the provider and writes the reply.
// It returns the reply path.
func (a *Asker) Ask(ctx context.Context, symbol core.Symbol) (string, error) {
	prompt, err := record.Load(a.Resolver.Resolve(symbol, core.KindPrompt, time.Time{}))
	if err != nil {
		return "", err
	}
	if prompt == "" {
		return "", core.WrapError(core.ErrLLMFailed, errors.New("提示语为空"))
	}

	callCtx := ctx
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	resp, err := a.Provider.Chat(callCtx, ChatRequest{
		SystemPrompt: a.SystemPrompt,
		Messages:     UserMessage(prompt),
		MaxTokens:    a.MaxTokens,
	})
	if err != nil {
		return "", core.WrapError(core.ErrLLMFailed, err)
	}
	if a.Tokens != nil {
		a.Tokens.RecordTokens(a.Provider.Name(), resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", core.WrapError(core.ErrLLMFailed,
			fmt.Errorf("%s returned an empty reply (finish reason %q)", a.Provider.Name(), resp.FinishReason))
	}

	path := a.Resolver.Resolve(symbol, core.KindReply, time.Time{})
	if err := record.WriteText(path, resp.Content); err != nil {
		return "", err
	}
	if a.Archive != nil {
		if err := a.Archive.Copy(ctx, path); err != nil && a.Logger != nil {
			a.Logger.Warn("reply kept locally only", zap.String("path", path), zap.Error(err))
		}
	}
	return path, nil
}

// Op adapts Ask to the batch runner.
func (a *Asker) Op() batch.Op {
	return func(ctx context.Context, symbol core.Symbol) (batch.Outcome, error) {
		path, err := a.Ask(ctx, symbol)
		if err != nil {
			return batch.Outcome{}, err
		}
		return batch.Outcome{Path: path}, nil
	}
}
