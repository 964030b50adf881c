// Copyright 2025 Poiesic Systems
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


// Package config loads the project configuration file.
//
// The file is YAML. Every field is optional; missing fields keep their
// defaults and a missing file yields the defaults outright. Completion
// service credentials never live in the file: it names the environment
// variables that hold them, and LoadEnv can populate the environment from a
// .env file first.
package config
