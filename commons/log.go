// Copyright (c) 2014 The SurgeMQ Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package commons holds the broker's ambient concerns that don't belong
// to any single domain package: the structured logger and the
// shutdown-signal plumbing, kept small and unopinionated.
package commons

import (
	"log"
	"os"

	"go.uber.org/zap"
)

var (
	Debug bool
	Log   *zap.Logger
)

func init() {
	var err error

	if os.Getenv("BROKER_DEBUG") == "1" {
		Debug = true
	}

	if Debug {
		Log, err = zap.NewDevelopment()
	} else {
		Log, err = zap.NewProduction()
	}

	if err != nil {
		log.Fatal(err)
	}
}
