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

import "strings"

const (
	confidenceObjectID = 90
	confidenceStrong   = 90
	confidenceGeneric  = 50
)

// osSignature fingerprints one OS family. ObjectIDPrefixes match against
// sysObjectID and win at confidence 90. StrongKeywords are full product
// phrases that identify the OS on their own (confidence 90); WeakKeywords
// are shorter hints carrying their own confidence in [70,80].
type osSignature struct {
	OS               string
	Vendor           string
	ObjectIDPrefixes []string
	StrongKeywords   []string
	WeakKeywords     map[string]int
}

// osSignatures is consulted in order; earlier entries win ties.
var osSignatures = []osSignature{
	{
		OS:               "cisco-ios",
		Vendor:           "Cisco",
		ObjectIDPrefixes: []string{"1.3.6.1.4.1.9.1."},
		StrongKeywords:   []string{"cisco ios software", "cisco ios-xe software"},
		WeakKeywords:     map[string]int{"ios": 70},
	},
	{
		OS:               "cisco-nxos",
		Vendor:           "Cisco",
		ObjectIDPrefixes: []string{"1.3.6.1.4.1.9.12.3."},
		StrongKeywords:   []string{"cisco nx-os"},
		WeakKeywords:     map[string]int{"nexus": 75},
	},
	{
		OS:               "cisco-asa",
		Vendor:           "Cisco",
		ObjectIDPrefixes: []string{"1.3.6.1.4.1.9.1.745", "1.3.6.1.4.1.9.1.1902"},
		StrongKeywords:   []string{"cisco adaptive security appliance"},
		WeakKeywords:     map[string]int{"asa": 70},
	},
	{
		OS:               "cisco-generic",
		Vendor:           "Cisco",
		ObjectIDPrefixes: []string{"1.3.6.1.4.1.9."},
		WeakKeywords:     map[string]int{"cisco": 75},
	},
	{
		OS:               "junos",
		Vendor:           "Juniper",
		ObjectIDPrefixes: []string{"1.3.6.1.4.1.2636."},
		StrongKeywords:   []string{"juniper networks"},
		WeakKeywords:     map[string]int{"junos": 80},
	},
	{
		OS:               "arista-eos",
		Vendor:           "Arista",
		ObjectIDPrefixes: []string{"1.3.6.1.4.1.30065."},
		StrongKeywords:   []string{"arista networks eos"},
		WeakKeywords:     map[string]int{"arista": 75},
	},
	{
		OS:               "hp-procurve",
		Vendor:           "HP",
		ObjectIDPrefixes: []string{"1.3.6.1.4.1.11.2.3.7.11."},
		StrongKeywords:   []string{"hp procurve", "procurve switch"},
		WeakKeywords:     map[string]int{"procurve": 80},
	},
	{
		OS:               "vmware-esxi",
		Vendor:           "VMware",
		ObjectIDPrefixes: []string{"1.3.6.1.4.1.6876."},
		StrongKeywords:   []string{"vmware esxi"},
		WeakKeywords:     map[string]int{"vmware": 75},
	},
	{
		OS:             "linux",
		StrongKeywords: []string{},
		WeakKeywords:   map[string]int{"linux": 80, "ubuntu": 75, "debian": 75, "centos": 75},
	},
	{
		OS:           "windows",
		Vendor:       "Microsoft",
		WeakKeywords: map[string]int{"windows": 80, "microsoft": 70},
	},
}

// DetectOS fingerprints a device from its sysObjectID and sysDescr.
// sysObjectID prefix matches are checked first across all signatures,
// then strong phrase keywords, then weak keywords. A non-empty sysDescr
// that matches nothing falls back to generic at confidence 50; an empty
// one to generic at 0.
func DetectOS(sysObjectID, sysDescr string) *OSDetection {
	objectID := strings.TrimPrefix(strings.TrimSpace(sysObjectID), ".")
	descr := strings.ToLower(sysDescr)

	if objectID != "" {
		for i := range osSignatures {
			sig := &osSignatures[i]
			for _, prefix := range sig.ObjectIDPrefixes {
				if strings.HasPrefix(objectID, prefix) {
					return &OSDetection{OS: sig.OS, Confidence: confidenceObjectID}
				}
			}
		}
	}

	if descr != "" {
		for i := range osSignatures {
			sig := &osSignatures[i]
			for _, phrase := range sig.StrongKeywords {
				if strings.Contains(descr, phrase) {
					return &OSDetection{OS: sig.OS, Confidence: confidenceStrong}
				}
			}
		}

		best := &OSDetection{OS: "generic", Confidence: confidenceGeneric}

		for i := range osSignatures {
			sig := &osSignatures[i]
			for keyword, confidence := range sig.WeakKeywords {
				if strings.Contains(descr, keyword) && confidence > best.Confidence {
					best = &OSDetection{OS: sig.OS, Confidence: confidence}
				}
			}
		}

		return best
	}

	return &OSDetection{OS: "generic", Confidence: 0}
}

// VendorForOS returns the vendor associated with a detected OS family.
func VendorForOS(osName string) string {
	for i := range osSignatures {
		if osSignatures[i].OS == osName {
			return osSignatures[i].Vendor
		}
	}

	return ""
}

// isCiscoFamily reports whether an OS belongs to the Cisco family, which
// unlocks Cisco-private MIB walks (EnvMon, CDP).
func isCiscoFamily(osName string) bool {
	return strings.HasPrefix(osName, "cisco")
}
