package ner

// LoadHTTPModelWithDelay exposes the retry delay to tests.
var LoadHTTPModelWithDelay = loadHTTPModel
