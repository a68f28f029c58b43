package helper_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/ardnew/hbs/helper"
	"github.com/ardnew/hbs/lang"
)

func TestEnvResult(t *testing.T) {
	e := lang.New(
		lang.WithHelper("probe", lang.HelperFunc(func(value any, opts *lang.Options) (any, error) {
			env := helper.Env(value, opts)

			return fmt.Sprintf("%d %d %v",
				len(env[helper.VarParams].([]any)),
				len(env[helper.VarHash].(map[string]any)),
				env[helper.VarBlock]), nil
		})),
		lang.WithHelper("val", lang.HelperFunc(func(value any, opts *lang.Options) (any, error) {
			return helper.Env(value, opts)[helper.VarValue], nil
		})),
		lang.WithHelper("self", lang.HelperFunc(func(value any, opts *lang.Options) (any, error) {
			this, _ := helper.Env(value, opts)[helper.VarThis].(map[string]any)

			return this["name"], nil
		})),
		lang.WithHelper("pass", lang.HelperFunc(func(value any, opts *lang.Options) (any, error) {
			return helper.Result(value, opts)
		})),
	)

	model := map[string]any{
		"yes":  true,
		"no":   false,
		"user": map[string]any{"name": "ada"},
	}

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"inline env", `{{probe "x" 2 k=1}}`, "2 1 false"},
		{"empty env", `{{probe}}`, "0 0 false"},
		{"block env", `{{#probe}}{{/probe}}`, "0 0 true"},
		{"value", `{{val "x" "y"}}`, "x"},
		{"this", `{{#with user}}{{self}}{{/with}}`, "ada"},
		{"inline result", `{{pass "<b>"}}`, "&lt;b&gt;"},
		{"true renders body", `{{#pass yes}}{{user.name}}{{/pass}}`, "ada"},
		{"false renders inverse", `{{#pass no}}y{{else}}n{{/pass}}`, "n"},
		{"value becomes scope", `{{#pass user as |u|}}{{name}}-{{u.name}}{{/pass}}`, "ada-ada"},
		{"block output is safe", `{{#pass yes}}<i>{{/pass}}`, "<i>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := e.Parse(context.Background(), tt.name, tt.source)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			got, err := e.RenderString(context.Background(), tmpl, model)
			if err != nil {
				t.Fatalf("render error: %v", err)
			}

			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
