/*
 * errors.go, part of nbforce.
 *
 * Copyright 2024 Raul Mera <rmera{at}usachDOTcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package nbforce

import (
	"fmt"
	"strings"
)

// Error is the error returned by the configuration and setup functions of
// the package. The Decorate method allows to add and retrieve info from the
// error, without changing its type or wrapping it around something else.
// The error it was created from, if any, can be reached with errors.Is/As.
type Error struct {
	message  string
	deco     *[]string
	critical bool
	err      error
}

func newError(critical bool, err error, format string, a ...any) Error {
	msg := format
	if len(a) > 0 {
		msg = fmt.Sprintf(format, a...)
	}
	return Error{message: msg, deco: new([]string), critical: critical, err: err}
}

// Error returns the message, preceded by the decorations, outermost first.
func (err Error) Error() string {
	msg := err.message
	if err.err != nil {
		if msg == "" {
			msg = err.err.Error()
		} else {
			msg = fmt.Sprintf("%s: %v", msg, err.err)
		}
	}
	if err.deco == nil || len(*err.deco) == 0 {
		return "nbforce: " + msg
	}
	d := make([]string, 0, len(*err.deco))
	for i := len(*err.deco) - 1; i >= 0; i-- {
		d = append(d, (*err.deco)[i])
	}
	return fmt.Sprintf("nbforce: %s: %s", strings.Join(d, ": "), msg)
}

// Decorate adds dec to the decoration slice of the error, and returns
// the resulting slice. An empty dec just returns the current slice.
func (err Error) Decorate(dec string) []string {
	if err.deco == nil {
		return nil
	}
	if dec != "" {
		*err.deco = append(*err.deco, dec)
	}
	return *err.deco
}

// Critical returns whether the error is critical or it can be ignored.
func (err Error) Critical() bool { return err.critical }

func (err Error) Unwrap() error { return err.err }

// errDecorate decorates err with the caller's name if it is an Error,
// otherwise it wraps it in a new critical Error.
func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	//only err itself, a wrapped Error would lose the wrapper's message.
	if e, ok := err.(Error); ok && e.deco != nil {
		e.Decorate(caller)
		return e
	}
	e := newError(true, err, "")
	e.Decorate(caller)
	return e
}
