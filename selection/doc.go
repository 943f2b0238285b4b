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


// Package selection picks a single passage for daily or random
// presentation, weighted by spaced repetition, editorial quality, source
// priority, and reader feedback.
//
// Each item's weight is the product of four independent multiplicative
// layers; one streaming weighted reservoir pass then draws a selection
// with probability exactly proportional to weight. The daily mode seeds a
// deterministic generator from the date string so everyone sees the same
// passage on a given day; the random mode draws from the system generator.
package selection
