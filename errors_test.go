package servlin

import "testing"

func TestHTTPErrorResponseDropsOnDisconnect(t *testing.T) {
	herr := newHTTPError(ErrDisconnect, "")
	if _, ok := herr.Response(); ok {
		t.Fatalf("Disconnect should not produce a response")
	}
}

func TestHTTPErrorResponseMapsHeadTooLong(t *testing.T) {
	herr := newHTTPError(ErrHeadTooLongKind, "")
	resp, ok := herr.Response()
	if !ok || resp.Code() != 431 {
		t.Fatalf("got code %d, ok %v; want 431, true", resp.Code(), ok)
	}
}

func TestHTTPErrorResponseMapsMalformed(t *testing.T) {
	for _, kind := range []ErrorKind{ErrMalformedHeadline, ErrMalformedPath, ErrMalformedHeader, ErrMalformedContentLength} {
		herr := newHTTPError(kind, "")
		resp, ok := herr.Response()
		if !ok || resp.Code() != 400 {
			t.Errorf("kind %v: got code %d, ok %v; want 400, true", kind, resp.Code(), ok)
		}
	}
}

func TestHTTPErrorResponseMapsServerErrors(t *testing.T) {
	for _, kind := range []ErrorKind{ErrErrorReadingBody, ErrErrorSavingFile, ErrErrorReadingFile, ErrHandlerPanic, ErrIOError, ErrAlreadyGotBody, ErrCacheDirNotConfigured} {
		herr := newHTTPError(kind, "")
		resp, ok := herr.Response()
		if !ok || resp.Code() != 500 {
			t.Errorf("kind %v: got code %d, ok %v; want 500, true", kind, resp.Code(), ok)
		}
		if !kind.IsServerError() {
			t.Errorf("kind %v: IsServerError() = false, want true", kind)
		}
	}
}

func TestHTTPErrorBodyTooLongMaps413(t *testing.T) {
	herr := HTTPError{Kind: ErrBodyTooLong}
	resp, ok := herr.Response()
	if !ok || resp.Code() != 413 {
		t.Fatalf("got code %d, ok %v; want 413, true", resp.Code(), ok)
	}
}

func TestHTTPErrorTruncatedMaps400(t *testing.T) {
	herr := newHTTPError(ErrTruncatedKind, "")
	resp, ok := herr.Response()
	if !ok || resp.Code() != 400 {
		t.Fatalf("got code %d, ok %v; want 400, true", resp.Code(), ok)
	}
}
