// Package cookiestore owns the cookie jar of one account and persists it
// through a storage.KVEngine.
//
// The session identity lives entirely in cookies: "sessionid" proves the
// login, "ds_user_id" names the account and "csrftoken" is echoed back on
// mutating requests. A Store answers "is this session still usable" from
// those cookies alone, without touching the network.
package cookiestore
