package query

import "SiloDB/dberr"

func errNoMoreTuples(op string) error {
	return dberr.NewDbError(op, "called with no tuples remaining")
}
