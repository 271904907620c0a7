// Package contract validates and normalizes server payloads into the
// client's internal model. The server is free to answer with a bare
// entity, a {success,data} envelope, or a partially populated list item;
// everything leaving this package is one strict shape per entity type.
//
// Every violation surfaces as apierror.Error{Status: 500, Kind:
// BAD_RESPONSE} carrying []Issue in Details. The defect being reported is
// "cannot trust what the server sent", so the 500 is deliberate even when
// the transport status was 200.
package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/astro-web3/helpdesk-client/internal/apierror"
)

// Issue is one contract violation, addressable by path for telemetry.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Normalizer lets a wire type collapse nullable and empty fields into the
// single absent representation (Go zero values) before validation runs.
type Normalizer interface {
	Normalize()
}

var (
	schemaOnce sync.Once
	schema     *validator.Validate
)

func validate() *validator.Validate {
	schemaOnce.Do(func() {
		schema = validator.New(validator.WithRequiredStructEnabled())
	})
	return schema
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// Unwrap returns the data portion of a {success,data} envelope, or the
// payload unchanged when it is not enveloped. The envelope is tried first
// and the bare shape is the fallback; the order is fixed.
func Unwrap(payload []byte) []byte {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return payload
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return payload
	}
	if env.Success != nil && len(env.Data) > 0 {
		return env.Data
	}
	return payload
}

// Parse decodes payload into T and enforces T's schema tags. context names
// the operation for the Issue paths ("ticket.get" etc.).
func Parse[T any](payload []byte, context string) (*T, error) {
	return parse[T](payload, context, nil)
}

// ParseEnvelope is Parse after envelope unwrapping.
func ParseEnvelope[T any](payload []byte, context string) (*T, error) {
	return parse[T](Unwrap(payload), context, nil)
}

func parse[T any](payload []byte, context string, lean func(*T)) (*T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, badResponse(context, []Issue{{Path: "$", Message: err.Error()}})
	}
	if lean != nil {
		lean(&v)
	}
	if n, ok := any(&v).(Normalizer); ok {
		n.Normalize()
	}
	if err := validate().Struct(&v); err != nil {
		return nil, badResponse(context, issuesOf(err))
	}
	return &v, nil
}

// PageInfo is always fully populated after normalization; absent server
// fields take the documented defaults instead of being carried as gaps.
type PageInfo struct {
	Limit       int    `json:"limit"`
	HasNextPage bool   `json:"hasNextPage"`
	NextCursor  string `json:"nextCursor"`
}

// Page is one normalized page of list results.
type Page[T any] struct {
	Items    []T      `json:"items"`
	PageInfo PageInfo `json:"pageInfo"`
}

type pageInfoWire struct {
	Limit       *int    `json:"limit"`
	HasNextPage *bool   `json:"hasNextPage"`
	NextCursor  *string `json:"nextCursor"`
}

type listWire struct {
	Items    []json.RawMessage `json:"items"`
	PageInfo *pageInfoWire     `json:"pageInfo"`
}

// ParseListPage normalizes a list payload. A bare JSON array and the
// {items,pageInfo} object are both accepted. The lean defaulter, when
// given, runs on each item before validation so that list endpoints may
// legitimately omit fields a detail endpoint must carry; anything still
// missing after the defaulter is a contract violation, not leniency.
// Missing pageInfo fields default to {Limit: fallbackLimit, HasNextPage:
// false, NextCursor: ""}.
func ParseListPage[T any](payload []byte, context string, fallbackLimit int, lean func(*T)) (*Page[T], error) {
	raw := bytes.TrimSpace(Unwrap(payload))

	var wire listWire
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &wire.Items); err != nil {
			return nil, badResponse(context, []Issue{{Path: "$", Message: err.Error()}})
		}
	} else {
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, badResponse(context, []Issue{{Path: "$", Message: err.Error()}})
		}
	}

	page := &Page[T]{
		Items:    make([]T, 0, len(wire.Items)),
		PageInfo: PageInfo{Limit: fallbackLimit},
	}

	for i, item := range wire.Items {
		v, err := parse[T](item, fmt.Sprintf("%s.items[%d]", context, i), lean)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, *v)
	}

	if pi := wire.PageInfo; pi != nil {
		if pi.Limit != nil && *pi.Limit > 0 {
			page.PageInfo.Limit = *pi.Limit
		}
		if pi.HasNextPage != nil {
			page.PageInfo.HasNextPage = *pi.HasNextPage
		}
		if pi.NextCursor != nil {
			page.PageInfo.NextCursor = *pi.NextCursor
		}
	}

	return page, nil
}

func badResponse(context string, issues []Issue) *apierror.Error {
	err := apierror.NewKind(
		apierror.KindBadResponse,
		http.StatusInternalServerError,
		fmt.Sprintf("response contract violated in %s", context),
	)
	return err.WithDetails(issues)
}

func issuesOf(err error) []Issue {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		issues := make([]Issue, 0, len(verrs))
		for _, fe := range verrs {
			issues = append(issues, Issue{
				Path:    fe.Namespace(),
				Message: fmt.Sprintf("failed %q constraint", fe.Tag()),
			})
		}
		return issues
	}
	return []Issue{{Path: "$", Message: err.Error()}}
}
