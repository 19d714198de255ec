package errs

import "testing"

func TestIsCodeThroughWrapping(t *testing.T) {
	err := ErrNotFound.WrapMsg("user missing", "userID", "u1")

	if !IsCode(err, ErrNotFound) {
		t.Fatalf("wrapped error must still match its code")
	}
	if IsCode(err, ErrDuplicated) {
		t.Fatalf("must not match a different code")
	}
	if IsCode(nil, ErrNotFound) {
		t.Fatalf("nil error matches nothing")
	}
}

func TestUnwrapDigsOutCodeError(t *testing.T) {
	err := ErrRelationshipNotFound.WrapMsg("pair", "a", "u1", "b", "u2")
	codeErr := Unwrap(err)
	if codeErr == nil {
		t.Fatalf("expected a CodeError inside")
	}
	if codeErr.Code != RelationshipNotFoundCode {
		t.Fatalf("code = %d, want %d", codeErr.Code, RelationshipNotFoundCode)
	}
	if Unwrap(New("plain")) != nil {
		t.Fatalf("plain error carries no CodeError")
	}
}

func TestWithDetailDoesNotMutate(t *testing.T) {
	detailed := ErrArgs.WithDetail("missing friendId")
	if ErrArgs.Detail != "" {
		t.Fatalf("predefined error mutated: %q", ErrArgs.Detail)
	}
	if detailed.Detail != "missing friendId" {
		t.Fatalf("detail lost: %q", detailed.Detail)
	}
	if detailed.Code != ErrArgs.Code {
		t.Fatalf("code must carry over")
	}
}

func TestWrapMsgFormatsKv(t *testing.T) {
	err := ErrArgs.WrapMsg("bad input", "field", "content")
	codeErr := Unwrap(err)
	if codeErr == nil {
		t.Fatalf("expected CodeError")
	}
	if codeErr.Detail != "bad input field=content" {
		t.Fatalf("detail = %q", codeErr.Detail)
	}
}
