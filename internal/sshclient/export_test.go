package sshclient

// Test helpers shared with the external sshclient_test package.
var (
	StartTestServer = startTestServer
	WriteClientKey  = writeClientKey
	NewTestConfig   = testConfig
)
