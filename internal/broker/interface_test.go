package broker

import (
	"errors"
	"testing"
	"time"

	"github.com/newthinker/klineprompt/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpect_OK(t *testing.T) {
	got, err := Expect(OK(42), nil, "获取K线数据失败")
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestExpect_Business(t *testing.T) {
	_, err := Expect(Fail[int]("额度不足"), nil, "订阅失败")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBusiness)
	assert.Contains(t, err.Error(), "订阅失败: 额度不足")
}

func TestExpect_Transport(t *testing.T) {
	_, err := Expect(Reply[int]{}, errors.New("connection refused"), "订阅失败")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrTransport)
	assert.Contains(t, err.Error(), "请求异常: connection refused")
}

func TestOpenError(t *testing.T) {
	assert.ErrorIs(t, OpenError(errors.New("refused")), core.ErrTransport)

	business := core.WrapError(core.ErrBusiness, errors.New("no account"))
	assert.Same(t, business, OpenError(business))
}

func TestDateRange(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	start, end := DateRange(now, 60)
	assert.Equal(t, "2024-01-05", start.Format("2006-01-02"))
	assert.Equal(t, now, end)
}

func TestSubTypeFor(t *testing.T) {
	assert.Equal(t, SubType("K_DAY"), SubTypeFor(KLDay))
}
