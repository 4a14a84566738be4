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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnoresInterfaceDefaults(t *testing.T) {
	var tpl *OSTemplate

	assert.True(t, tpl.IgnoresInterface("lo0", 6))
	assert.True(t, tpl.IgnoresInterface("Null0", 6))
	assert.True(t, tpl.IgnoresInterface("Tunnel5", 6))
	assert.True(t, tpl.IgnoresInterface("Vlan1", 53))
	assert.False(t, tpl.IgnoresInterface("Vlan10", 53))
	assert.False(t, tpl.IgnoresInterface("GigabitEthernet0/1", 6))

	// Loopback and tunnel ifTypes are ignored regardless of name.
	assert.True(t, tpl.IgnoresInterface("anything", ifTypeLoopback))
	assert.True(t, tpl.IgnoresInterface("anything", ifTypeTunnel))
}

func TestIgnoresInterfaceTemplateRules(t *testing.T) {
	tpl := &OSTemplate{
		OS:         "linux",
		IgnoreIf:   []string{`^docker`, `^veth`},
		IgnoreType: []int32{53},
	}
	require.NoError(t, tpl.compile())

	assert.True(t, tpl.IgnoresInterface("docker0", 6))
	assert.True(t, tpl.IgnoresInterface("vethabc123", 6))
	assert.True(t, tpl.IgnoresInterface("eth0.100", 53))
	assert.False(t, tpl.IgnoresInterface("eth0", 6))
}

func TestTemplateStoreBuiltins(t *testing.T) {
	store, err := NewTemplateStore("")
	require.NoError(t, err)

	assert.Equal(t, "cisco-ios", store.Load("cisco-ios").OS)
	assert.Equal(t, "generic", store.Load("no-such-os").OS)

	chain := store.LoadAll("junos")
	require.Len(t, chain, 2)
	assert.Equal(t, "junos", chain[0].OS)
	assert.Equal(t, "generic", chain[1].OS)

	chain = store.LoadAll("generic")
	require.Len(t, chain, 1)
}

func TestTemplateStoreLoadsYAML(t *testing.T) {
	dir := t.TempDir()

	tplYAML := `os: junos
ignore_if:
  - "^fxp"
discovery:
  sensors:
    temperature:
      - oid: ".1.3.6.1.4.1.2636.3.1.13.1.7"
        descr: "RE {{ $index }} temperature"
        skip_if_zero: true
        warn_high: 70
        limit_high: 85
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junos.yaml"), []byte(tplYAML), 0o600))

	store, err := NewTemplateStore(dir)
	require.NoError(t, err)

	tpl := store.Load("junos")
	require.NotNil(t, tpl)
	assert.True(t, tpl.IgnoresInterface("fxp0", 6))

	defs := tpl.Discovery.Sensors["temperature"]
	require.Len(t, defs, 1)
	assert.Equal(t, ".1.3.6.1.4.1.2636.3.1.13.1.7", defs[0].OID)
	assert.True(t, defs[0].SkipIfZero)
	require.NotNil(t, defs[0].WarnHigh)
	assert.InDelta(t, 70, *defs[0].WarnHigh, 0.001)
}

func TestTemplateStoreMissingDir(t *testing.T) {
	store, err := NewTemplateStore("/nonexistent/templates")
	require.NoError(t, err)
	assert.NotNil(t, store.Load("generic"))
}

func TestTemplateStoreBadRegex(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"),
		[]byte("os: bad\nignore_if:\n  - \"[unclosed\"\n"), 0o600))

	_, err := NewTemplateStore(dir)
	assert.Error(t, err)
}

func TestSubstituteIndex(t *testing.T) {
	assert.Equal(t, "RE 9 temp", SubstituteIndex("RE {{ $index }} temp", "9"))
	assert.Equal(t, "RE 9 temp", SubstituteIndex("RE {{$index}} temp", "9"))
	assert.Equal(t, "no placeholder", SubstituteIndex("no placeholder", "9"))
}
