// Package fetchcache implements a cache-aside fetch layer over a shared
// key-value store. Content for a resource key (usually a URL) is read from the
// store; on miss or expiry it is produced by a caller-supplied Origin, written
// back with a fixed TTL, and returned. Every successful Fetch bumps a per-key
// access counter with the store's atomic increment.
//
// Components:
//   - Store: key-value capability set (Redis, memcached, Ristretto, BigCache, local).
//   - Codec[V]: (de)serializes V <-> []byte.
//   - Origin[V]: produces content for a key on miss.
//
// Keys:
//
//	<contentPrefix><key>  - framed content, expires after TTL (default prefix "result:")
//	<counterPrefix><key>  - access counter, no expiry (default prefix "count:")
//
// The two prefixes must not overlap, so no resource key can address
// another key's counter.
//
// Usage:
//
//	f, _ := fetchcache.New(fetchcache.Options[string]{
//	    Store:  redisstore,
//	    Origin: httpget.New().Fetch,
//	    Codec:  codec.String{},
//	})
//	body, err := f.Fetch(ctx, "http://slowwly.example/delay/3000/url/http://www.example.com")
package fetchcache
