// Package ledger tracks which bookmark URLs have already been
// enriched so repeated runs over the same export skip finished work.
package ledger
