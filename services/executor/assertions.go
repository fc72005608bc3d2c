// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package executor

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Ruineo-Z/Spec2Test/services/datatypes"
)

// Response is the subset of an HTTP exchange that assertions run
// against.
type Response struct {
	StatusCode int
	Duration   time.Duration
	Header     http.Header
	Body       []byte
}

// Evaluate runs one assertion against a response.
func Evaluate(a datatypes.Assertion, resp *Response) datatypes.AssertionResult {
	result := datatypes.AssertionResult{Assertion: a}

	switch a.Type {
	case datatypes.AssertStatusCode:
		result.Actual = resp.StatusCode
		result.Passed, result.Message = compare(float64(resp.StatusCode), a.Expected, a.Operator)

	case datatypes.AssertResponseTime:
		// Expected is seconds; default operator is "less than" since a
		// time assertion is almost always an upper bound.
		secs := resp.Duration.Seconds()
		op := a.Operator
		if op == "" {
			op = "lte"
		}
		result.Actual = secs
		result.Passed, result.Message = compare(secs, a.Expected, op)

	case datatypes.AssertResponseSize:
		size := float64(len(resp.Body))
		op := a.Operator
		if op == "" {
			op = "lte"
		}
		result.Actual = size
		result.Passed, result.Message = compare(size, a.Expected, op)

	case datatypes.AssertHeaderExists:
		result.Passed = resp.Header.Get(a.Target) != ""
		if !result.Passed {
			result.Message = fmt.Sprintf("header %q not present", a.Target)
		}

	case datatypes.AssertHeaderValue:
		actual := resp.Header.Get(a.Target)
		result.Actual = actual
		result.Passed, result.Message = compareStrings(actual, a.Expected, a.Operator)

	case datatypes.AssertBodyContains:
		needle := fmt.Sprintf("%v", a.Expected)
		result.Passed = strings.Contains(string(resp.Body), needle)
		if !result.Passed {
			result.Message = fmt.Sprintf("body does not contain %q", needle)
		}

	case datatypes.AssertBodyNotContains:
		needle := fmt.Sprintf("%v", a.Expected)
		result.Passed = !strings.Contains(string(resp.Body), needle)
		if !result.Passed {
			result.Message = fmt.Sprintf("body unexpectedly contains %q", needle)
		}

	case datatypes.AssertJSONPath:
		value := gjson.GetBytes(resp.Body, a.Target)
		if !value.Exists() {
			result.Message = fmt.Sprintf("json path %q not found", a.Target)
			break
		}
		result.Actual = value.Value()
		if a.Expected == nil {
			// Bare existence check.
			result.Passed = true
			break
		}
		if value.Type == gjson.Number {
			result.Passed, result.Message = compare(value.Num, a.Expected, a.Operator)
		} else {
			result.Passed, result.Message = compareStrings(value.String(), a.Expected, a.Operator)
		}

	case datatypes.AssertRegexMatch:
		re, err := regexp.Compile(a.Target)
		if err != nil {
			result.Message = fmt.Sprintf("invalid pattern %q: %v", a.Target, err)
			break
		}
		result.Passed = re.Match(resp.Body)
		if !result.Passed {
			result.Message = fmt.Sprintf("body does not match %q", a.Target)
		}

	default:
		result.Message = fmt.Sprintf("unknown assertion type %q", a.Type)
	}
	return result
}

// EvaluateAll runs every assertion and reports whether all passed.
func EvaluateAll(assertions []datatypes.Assertion, resp *Response) ([]datatypes.AssertionResult, bool) {
	results := make([]datatypes.AssertionResult, 0, len(assertions))
	allPassed := true
	for _, a := range assertions {
		r := Evaluate(a, resp)
		if !r.Passed {
			allPassed = false
		}
		results = append(results, r)
	}
	return results, allPassed
}

// compare applies a numeric operator. Expected values arrive as
// json-decoded any, so numbers may be float64, int, or strings.
func compare(actual float64, expected any, operator string) (bool, string) {
	want, ok := toFloat(expected)
	if !ok {
		return false, fmt.Sprintf("expected value %v is not numeric", expected)
	}
	if operator == "" {
		operator = "eq"
	}
	var passed bool
	switch operator {
	case "eq":
		passed = actual == want
	case "ne":
		passed = actual != want
	case "gt":
		passed = actual > want
	case "gte":
		passed = actual >= want
	case "lt":
		passed = actual < want
	case "lte":
		passed = actual <= want
	default:
		return false, fmt.Sprintf("operator %q not valid for numeric comparison", operator)
	}
	if !passed {
		return false, fmt.Sprintf("got %v, want %s %v", actual, operator, want)
	}
	return true, ""
}

func compareStrings(actual string, expected any, operator string) (bool, string) {
	want := fmt.Sprintf("%v", expected)
	if operator == "" {
		operator = "eq"
	}
	var passed bool
	switch operator {
	case "eq":
		passed = actual == want
	case "ne":
		passed = actual != want
	case "contains":
		passed = strings.Contains(actual, want)
	default:
		return false, fmt.Sprintf("operator %q not valid for string comparison", operator)
	}
	if !passed {
		return false, fmt.Sprintf("got %q, want %s %q", actual, operator, want)
	}
	return true, ""
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
