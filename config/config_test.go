/*
 * CellGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package config

import (
	"fmt"
	"os"
	"testing"
)

const testconf = "testconfig"

const invalidFileName = "**" + "\x00"

func TestConfig(t *testing.T) {

	Config = nil

	os.WriteFile(testconf, []byte(`{
    "MemoryOnlyStorage": true,
    "ResolveWorkers": 4
}`), 0644)

	defer func() {
		if err := os.Remove(testconf); err != nil {
			fmt.Print("Could not remove test config file:", err.Error())
		}
	}()

	if err := LoadConfigFile(testconf); err != nil {
		t.Error(err)
		return
	}

	if res := Str(MemoryOnlyStorage); res != "true" {
		t.Error("Unexpected result:", res)
		return
	}

	if res := Bool(MemoryOnlyStorage); !res {
		t.Error("Unexpected result:", res)
		return
	}

	if res := Int(ResolveWorkers); res != 4 {
		t.Error("Unexpected result:", res)
		return
	}

	// Missing values are taken from the defaults

	if res := Int(VisibilityCacheMaxSize); fmt.Sprint(res) != fmt.Sprint(DefaultConfig[VisibilityCacheMaxSize]) {
		t.Error("Unexpected result:", res)
		return
	}

	if res := Str(LogLevel); res != "info" {
		t.Error("Unexpected result:", res)
		return
	}

	LoadDefaultConfig()

	if res := Str(MemoryOnlyStorage); res != "false" {
		t.Error("Unexpected result:", res)
		return
	}

	Config[ResolveWorkers] = "123"

	if res := Int(ResolveWorkers); res != 123 || fmt.Sprint(DefaultConfig[ResolveWorkers]) != "0" {
		t.Error("Unexpected result:", res)
		return
	}

	// Invalid values are programming errors

	Config[BadgerSyncWrites] = "foo"

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Reading an invalid value should panic")
			}
		}()

		Bool(BadgerSyncWrites)
	}()

	if err := LoadConfigFile(invalidFileName); err == nil {
		t.Error("Loading an invalid file should fail")
		return
	}
}
