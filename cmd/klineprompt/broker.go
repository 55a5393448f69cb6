package main

import (
	"fmt"
	"strings"

	"github.com/newthinker/klineprompt/internal/broker"
	"github.com/newthinker/klineprompt/internal/broker/futu"
	"github.com/newthinker/klineprompt/internal/broker/mock"
	"github.com/newthinker/klineprompt/internal/config"
	"github.com/newthinker/klineprompt/internal/core"
	"go.uber.org/zap"
)

var securityFirms = map[string]broker.SecurityFirm{
	"futu_securities": broker.FirmFutuSecurities,
	"futu_inc":        broker.FirmFutuInc,
	"futu_sg":         broker.FirmFutuSG,
	"futu_au":         broker.FirmFutuAU,
}

func newDialer(cfg config.BrokerConfig, log *zap.Logger) (broker.Dialer, error) {
	switch cfg.Provider {
	case "mock":
		return mock.New(), nil
	case "futu":
		return futu.New(futu.Config{
			Host:    cfg.Futu.Host,
			Port:    cfg.Futu.Port,
			Timeout: cfg.Futu.Timeout,
			Logger:  log,
		}), nil
	default:
		return nil, fmt.Errorf("unknown broker provider: %s", cfg.Provider)
	}
}

func tradeFilter(cfg config.FutuConfig) broker.TradeFilter {
	env := broker.TrdEnvReal
	if cfg.Env == "simulate" {
		env = broker.TrdEnvSimulate
	}
	firm, ok := securityFirms[cfg.SecurityFirm]
	if !ok {
		firm = broker.FirmFutuSecurities
	}
	return broker.TradeFilter{
		Market: core.Market(strings.ToUpper(cfg.TradeMarket)),
		Firm:   firm,
		Env:    env,
	}
}
