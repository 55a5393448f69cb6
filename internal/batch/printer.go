package batch

import (
	"fmt"
	"io"
	"strings"

	"github.com/newthinker/klineprompt/internal/core"
)

var rule = strings.Repeat("=", 50)

type printer struct {
	w    io.Writer
	kind core.DatasetKind
}

func (p printer) verb() string {
	switch p.kind {
	case core.KindPrompt:
		return "构建"
	case core.KindReply:
		return "请求"
	default:
		return "获取"
	}
}

func (p printer) header(n int) {
	fmt.Fprintf(p.w, "开始%s %d 只股票的%s...\n", p.verb(), n, p.kind.Label())
	fmt.Fprintln(p.w, rule)
}

func (p printer) progress(i, n int, sym core.Symbol) {
	fmt.Fprintf(p.w, "[%d/%d] 正在处理: %s\n", i, n, sym)
}

func (p printer) success(sym core.Symbol, path string) {
	fmt.Fprintf(p.w, "✓ %s %s已保存到: %s\n", sym, p.kind.Label(), path)
}

func (p printer) failure(sym core.Symbol, err error) {
	what := p.kind.Label() + p.verb()
	if p.kind == core.KindPrompt || p.kind == core.KindReply {
		what = p.verb() + p.kind.Label()
	}
	fmt.Fprintf(p.w, "✗ %s %s失败: %s\n", sym, what, Reason(err))
}

func (p printer) summary(r Report) {
	fmt.Fprintln(p.w, rule)
	fmt.Fprintf(p.w, "处理完成！成功: %d/%d\n", r.Succeeded(), r.Total())

	failures := r.Failures()
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(p.w, "失败的股票 (%d):\n", len(failures))
	for _, f := range failures {
		fmt.Fprintf(p.w, "  - %s: %s\n", f.Symbol, Reason(f.Err))
	}
}
