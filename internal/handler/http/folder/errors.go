package folder

import "errors"

var errNoFieldsGiven = errors.New("must be: at least one of name, parent_id, pinned required")
