package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestGetEnvWithDefault(t *testing.T) {
	t.Setenv("FOO", "")
	if got := GetEnv("FOO", "bar"); got != "bar" {
		t.Fatalf("expected bar, got %s", got)
	}
	t.Setenv("FOO", "baz")
	if got := GetEnv("FOO", "bar"); got != "baz" {
		t.Fatalf("expected baz, got %s", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("NUM", "")
	if got := GetEnvInt("NUM", 42); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	t.Setenv("NUM", "100")
	if got := GetEnvInt("NUM", 42); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	t.Setenv("NUM", "notint")
	if got := GetEnvInt("NUM", 7); got != 7 {
		t.Fatalf("expected 7 on parse error, got %d", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("FLAG", "")
	if got := GetEnvBool("FLAG", true); got != true {
		t.Fatalf("expected true default, got %v", got)
	}
	t.Setenv("FLAG", "false")
	if got := GetEnvBool("FLAG", true); got != false {
		t.Fatalf("expected false, got %v", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("HB", "")
	if got := GetEnvDuration("HB", 10*time.Second); got != 10*time.Second {
		t.Fatalf("expected 10s default, got %v", got)
	}
	t.Setenv("HB", "500ms")
	if got := GetEnvDuration("HB", 10*time.Second); got != 500*time.Millisecond {
		t.Fatalf("expected 500ms, got %v", got)
	}
	t.Setenv("HB", "soon")
	if got := GetEnvDuration("HB", 3*time.Second); got != 3*time.Second {
		t.Fatalf("expected 3s on parse error, got %v", got)
	}
}

func TestGetEnvInts(t *testing.T) {
	def := []int{9999}
	t.Setenv("PORTS", "")
	if got := GetEnvInts("PORTS", def); !reflect.DeepEqual(got, def) {
		t.Fatalf("expected default, got %v", got)
	}
	t.Setenv("PORTS", "65432, 65433,bogus,65434")
	want := []int{65432, 65433, 65434}
	if got := GetEnvInts("PORTS", def); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	t.Setenv("PORTS", "only,words")
	if got := GetEnvInts("PORTS", def); !reflect.DeepEqual(got, def) {
		t.Fatalf("expected default on all-bogus list, got %v", got)
	}
}

func TestGetLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	if GetLogLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level")
	}
	t.Setenv("LOG_LEVEL", "warn")
	if GetLogLevel() != logrus.WarnLevel {
		t.Fatalf("expected warn level")
	}
	t.Setenv("LOG_LEVEL", "error")
	if GetLogLevel() != logrus.ErrorLevel {
		t.Fatalf("expected error level")
	}
	t.Setenv("LOG_LEVEL", "")
	if GetLogLevel() != logrus.InfoLevel {
		t.Fatalf("expected info default")
	}
}
