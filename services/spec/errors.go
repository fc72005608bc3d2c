// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package spec

import "errors"

var (
	// ErrInvalidFormat means the content is neither valid YAML nor
	// valid JSON.
	ErrInvalidFormat = errors.New("document is not valid YAML or JSON")

	// ErrMissingField means a required top-level field (openapi, info,
	// paths) or required info field (title, version) is absent.
	ErrMissingField = errors.New("required field missing")

	// ErrUnsupportedVersion means the openapi field names a version
	// outside the supported 3.0.x range.
	ErrUnsupportedVersion = errors.New("unsupported OpenAPI version")

	// ErrNoEndpoints means the document parsed cleanly but contains no
	// usable operations.
	ErrNoEndpoints = errors.New("document contains no endpoints")
)
