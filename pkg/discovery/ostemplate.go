/*
 * Copyright 2025 the Y Monitor Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// SensorDef is one template-declared sensor. The OID is walked; every
// index found becomes a sensor with "{{ $index }}" substituted into Descr.
type SensorDef struct {
	OID        string   `yaml:"oid"`
	Descr      string   `yaml:"descr"`
	SkipIf     string   `yaml:"skip_if,omitempty"`
	SkipIfZero bool     `yaml:"skip_if_zero,omitempty"`
	Divisor    float64  `yaml:"divisor,omitempty"`
	Multiplier float64  `yaml:"multiplier,omitempty"`
	LimitHigh  *float64 `yaml:"limit_high,omitempty"`
	LimitLow   *float64 `yaml:"limit_low,omitempty"`
	WarnHigh   *float64 `yaml:"warn_high,omitempty"`
	WarnLow    *float64 `yaml:"warn_low,omitempty"`
}

// OSTemplate declares per-OS discovery behavior: interface ignore rules
// and template-driven sensor definitions keyed by sensor type.
type OSTemplate struct {
	OS        string `yaml:"os"`
	Discovery struct {
		Sensors map[string][]SensorDef `yaml:"sensors,omitempty"`
	} `yaml:"discovery,omitempty"`
	IgnoreIf   []string `yaml:"ignore_if,omitempty"`
	IgnoreType []int32  `yaml:"ignore_type,omitempty"`

	ignoreRe []*regexp.Regexp
}

// defaultIgnoreIf applies to every OS on top of template rules.
var defaultIgnoreIf = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^lo`),
	regexp.MustCompile(`(?i)^null`),
	regexp.MustCompile(`(?i)^tunnel`),
	regexp.MustCompile(`(?i)^vlan1$`),
}

func (t *OSTemplate) compile() error {
	t.ignoreRe = t.ignoreRe[:0]

	for _, pattern := range t.IgnoreIf {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return fmt.Errorf("ignore_if pattern %q: %w", pattern, err)
		}

		t.ignoreRe = append(t.ignoreRe, re)
	}

	return nil
}

// IgnoresInterface reports whether an interface matches the template's
// ignore regexes, ignore types, the built-in defaults, or the always
// ignored ifType codes (loopback, tunnel).
func (t *OSTemplate) IgnoresInterface(name string, ifType int32) bool {
	if ifType == ifTypeLoopback || ifType == ifTypeTunnel {
		return true
	}

	for _, re := range defaultIgnoreIf {
		if re.MatchString(name) {
			return true
		}
	}

	if t == nil {
		return false
	}

	for _, re := range t.ignoreRe {
		if re.MatchString(name) {
			return true
		}
	}

	for _, it := range t.IgnoreType {
		if it == ifType {
			return true
		}
	}

	return false
}

// builtinTemplates covers the OSes shipped without a template file.
func builtinTemplates() map[string]*OSTemplate {
	templates := map[string]*OSTemplate{
		"generic": {OS: "generic"},
		"linux":   {OS: "linux", IgnoreIf: []string{`^docker`, `^veth`, `^br-`}},
		"windows": {OS: "windows", IgnoreIf: []string{`isatap`, `teredo`}},
		"cisco-ios": {
			OS:       "cisco-ios",
			IgnoreIf: []string{`^unrouted vlan`},
		},
		"junos": {
			OS:       "junos",
			IgnoreIf: []string{`\.32767$`, `^(bme|jsrv|pip|pp|tap|mtun)`},
		},
		"arista-eos":  {OS: "arista-eos"},
		"hp-procurve": {OS: "hp-procurve"},
		"vmware-esxi": {OS: "vmware-esxi"},
	}

	for _, t := range templates {
		_ = t.compile()
	}

	return templates
}

// TemplateStore loads and caches OS templates from a directory, falling
// back to built-ins and finally to the generic template.
type TemplateStore struct {
	dir       string
	templates map[string]*OSTemplate
}

// NewTemplateStore reads every *.yaml in dir (missing dir is fine) over
// the built-in set.
func NewTemplateStore(dir string) (*TemplateStore, error) {
	store := &TemplateStore{dir: dir, templates: builtinTemplates()}

	if dir == "" {
		return store, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}

		return nil, fmt.Errorf("failed to read template dir %q: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read template %q: %w", entry.Name(), err)
		}

		var tpl OSTemplate

		if err := yaml.Unmarshal(data, &tpl); err != nil {
			return nil, fmt.Errorf("failed to parse template %q: %w", entry.Name(), err)
		}

		if tpl.OS == "" {
			tpl.OS = strings.TrimSuffix(entry.Name(), ".yaml")
		}

		if err := tpl.compile(); err != nil {
			return nil, fmt.Errorf("template %q: %w", entry.Name(), err)
		}

		store.templates[tpl.OS] = &tpl
	}

	return store, nil
}

// Load returns the template for an OS, or the generic template when the
// OS has none.
func (s *TemplateStore) Load(osName string) *OSTemplate {
	if t, ok := s.templates[osName]; ok {
		return t
	}

	return s.templates["generic"]
}

// LoadAll returns the template chain consulted for a device: its OS
// template first, then generic.
func (s *TemplateStore) LoadAll(osName string) []*OSTemplate {
	t := s.Load(osName)
	if t.OS == "generic" {
		return []*OSTemplate{t}
	}

	return []*OSTemplate{t, s.templates["generic"]}
}

// SubstituteIndex replaces the {{ $index }} placeholder in a template
// sensor description.
func SubstituteIndex(descr, index string) string {
	replaced := strings.ReplaceAll(descr, "{{ $index }}", index)

	return strings.ReplaceAll(replaced, "{{$index}}", index)
}
