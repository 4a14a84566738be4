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

package models

// SNMPVersion represents the SNMP protocol version.
type SNMPVersion string

const (
	SNMPVersion1  SNMPVersion = "v1"
	SNMPVersion2c SNMPVersion = "v2c"
	SNMPVersion3  SNMPVersion = "v3"
)

// SNMPAuthLevel is the SNMPv3 security level.
type SNMPAuthLevel string

const (
	AuthLevelNone     SNMPAuthLevel = "none"
	AuthLevelAuth     SNMPAuthLevel = "auth"
	AuthLevelAuthPriv SNMPAuthLevel = "authPriv"
)

// SNMPConfig carries everything needed to open an SNMP session against a
// device. v1/v2c require Community; v3 with auth requires AuthProtocol and
// a secret of at least 8 characters, authPriv additionally the priv pair.
type SNMPConfig struct {
	Version      SNMPVersion   `json:"version"`
	Port         uint16        `json:"port"`
	TimeoutMS    int           `json:"timeout_ms"`
	Retries      int           `json:"retries"`
	Transport    string        `json:"transport"` // udp or tcp
	Community    string        `json:"community,omitempty"`
	Username     string        `json:"username,omitempty"`
	AuthLevel    SNMPAuthLevel `json:"auth_level,omitempty"`
	AuthProtocol string        `json:"auth_protocol,omitempty"` // MD5, SHA, SHA224..SHA512
	AuthSecret   string        `json:"auth_secret,omitempty"`
	PrivProtocol string        `json:"priv_protocol,omitempty"` // DES, AES, AES192, AES256, 3DES
	PrivSecret   string        `json:"priv_secret,omitempty"`
	Context      string        `json:"context,omitempty"`
}

// SNMPErrorCode is the standard PDU error-status set.
type SNMPErrorCode string

const (
	SNMPErrNoError             SNMPErrorCode = "noError"
	SNMPErrTooBig              SNMPErrorCode = "tooBig"
	SNMPErrNoSuchName          SNMPErrorCode = "noSuchName"
	SNMPErrBadValue            SNMPErrorCode = "badValue"
	SNMPErrReadOnly            SNMPErrorCode = "readOnly"
	SNMPErrGenErr              SNMPErrorCode = "genErr"
	SNMPErrNoAccess            SNMPErrorCode = "noAccess"
	SNMPErrWrongType           SNMPErrorCode = "wrongType"
	SNMPErrWrongLength         SNMPErrorCode = "wrongLength"
	SNMPErrWrongEncoding       SNMPErrorCode = "wrongEncoding"
	SNMPErrWrongValue          SNMPErrorCode = "wrongValue"
	SNMPErrNoCreation          SNMPErrorCode = "noCreation"
	SNMPErrInconsistentValue   SNMPErrorCode = "inconsistentValue"
	SNMPErrResourceUnavailable SNMPErrorCode = "resourceUnavailable"
	SNMPErrCommitFailed        SNMPErrorCode = "commitFailed"
	SNMPErrUndoFailed          SNMPErrorCode = "undoFailed"
	SNMPErrAuthorizationError  SNMPErrorCode = "authorizationError"
	SNMPErrNotWritable         SNMPErrorCode = "notWritable"
	SNMPErrInconsistentName    SNMPErrorCode = "inconsistentName"
)
