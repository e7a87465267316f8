// Package testsupport provides shared builders for package tests.
package testsupport
