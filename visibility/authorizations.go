/*
 * CellGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package visibility

import (
	"sort"
	"strings"
)

/*
Authorizations is the set of authorization tokens a caller holds for a
single operation. The zero value holds no tokens.
*/
type Authorizations struct {
	tokens map[string]struct{}
}

/*
NewAuthorizations creates a new authorization set.
*/
func NewAuthorizations(tokens ...string) Authorizations {
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return Authorizations{m}
}

/*
ParseAuthorizations creates an authorization set from a comma separated list.
*/
func ParseAuthorizations(list string) Authorizations {
	var tokens []string

	for _, t := range strings.Split(list, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}

	return NewAuthorizations(tokens...)
}

/*
Contains checks if a token is part of this set.
*/
func (a Authorizations) Contains(token string) bool {
	_, ok := a.tokens[token]
	return ok
}

/*
Len returns the number of tokens in this set.
*/
func (a Authorizations) Len() int {
	return len(a.tokens)
}

/*
Tokens returns all tokens of this set in sorted order.
*/
func (a Authorizations) Tokens() []string {
	ret := make([]string, 0, len(a.tokens))
	for t := range a.tokens {
		ret = append(ret, t)
	}
	sort.Strings(ret)
	return ret
}

/*
String returns a string representation of this set.
*/
func (a Authorizations) String() string {
	return "[" + strings.Join(a.Tokens(), ",") + "]"
}
