//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package model

import (
	"errors"
	"strings"
)

// ErrQuotaExhausted reports that every configured credential hit its quota.
var ErrQuotaExhausted = errors.New("model: request quota exhausted")

// quotaMarkers are the fragments hosted model APIs put into quota and rate
// limit errors. gRPC flavoured APIs say ResourceExhausted, REST ones say
// RESOURCE_EXHAUSTED or 429.
var quotaMarkers = []string{
	"resourceexhausted",
	"resource_exhausted",
	"quota",
	"429",
	"rate limit",
}

// IsQuotaExhausted reports whether err looks like an upstream quota or rate
// limit failure.
func IsQuotaExhausted(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExhausted) {
		return true
	}
	var rspErr *ResponseError
	if errors.As(err, &rspErr) && rspErr.Type == ErrorTypeQuotaError {
		return true
	}
	return IsQuotaMessage(err.Error())
}

// IsQuotaMessage is the text form of IsQuotaExhausted.
func IsQuotaMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, m := range quotaMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
