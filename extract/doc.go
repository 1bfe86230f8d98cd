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


// Package extract turns uploaded document bytes into plain text sections.
//
// Supported media types are plain text and markdown, PDF (one section per
// page), xlsx and legacy xls spreadsheets (one section per visible sheet) and
// Word documents, for which a fixed placeholder is returned. Extraction is
// pure over its input bytes and safe for concurrent use.
package extract
