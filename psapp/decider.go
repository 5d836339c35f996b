/*
	Photostat
	Copyright (c) 2025 Photostat Authors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package psapp

// Decider is the capability to ask the user a yes/no question. The
// caller injects it so nothing in the pipeline touches a terminal
// directly; non-interactive callers pass a FixedDecider.
type Decider interface {
	// Confirm asks the question and returns the answer; def is both
	// the suggested answer and the result of an empty reply.
	Confirm(question string, def bool) (bool, error)
}

// FixedDecider answers every question with a fixed value.
type FixedDecider bool

// Confirm implements Decider.
func (d FixedDecider) Confirm(string, bool) (bool, error) {
	return bool(d), nil
}
