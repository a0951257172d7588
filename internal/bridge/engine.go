package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bnema/streakwatch/internal/rules"
)

// RuleEngine implements rules.Engine by proxying to the extension's dynamic
// rule API over the connection.
type RuleEngine struct {
	conn *Conn
}

var _ rules.Engine = (*RuleEngine)(nil)

// NewRuleEngine creates an engine bound to conn.
func NewRuleEngine(conn *Conn) *RuleEngine {
	return &RuleEngine{conn: conn}
}

func (e *RuleEngine) ListDynamicRules(ctx context.Context) ([]rules.Rule, error) {
	body, err := e.conn.Call(ctx, TypeGetDynamicRules, nil)
	if err != nil {
		return nil, err
	}
	var res struct {
		OK    bool         `json:"ok"`
		Error string       `json:"error"`
		Rules []rules.Rule `json:"rules"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode rule list: %w", err)
	}
	if !res.OK {
		return nil, fmt.Errorf("extension rejected rule list: %s", res.Error)
	}
	return res.Rules, nil
}

func (e *RuleEngine) UpdateDynamicRules(ctx context.Context, removeIDs []int, add []rules.Rule) error {
	body, err := e.conn.Call(ctx, TypeUpdateDynamicRules, map[string]any{
		"removeRuleIds": removeIDs,
		"addRules":      add,
	})
	if err != nil {
		return err
	}
	var res struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return fmt.Errorf("decode rule update result: %w", err)
	}
	if !res.OK {
		return fmt.Errorf("extension rejected rule update: %s", res.Error)
	}
	return nil
}
