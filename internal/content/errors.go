package content

import "errors"

var ErrRenderFailed = errors.New("content: render failed")
