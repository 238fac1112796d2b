// Package fixture holds the dataset served by the mock script endpoint.
//
// A fixture is a YAML document:
//
//	maintenance: false
//	users:
//	  - username: alice
//	    password: correct          # hashed with bcrypt at load
//	    display_name: Alice Buyer
//	    role: buyer
//	  - username: bob
//	    password_hash: $2a$10$...  # precomputed bcrypt hash
//	suppliers:
//	  - name: Acme Corp
//	    status: active
//	orders:
//	  - supplier_id: 01HV...
//	    item: anvil
//	    quantity: 2
//
// Records without an id get a ULID. Store is safe for concurrent use and
// Replace swaps the whole dataset atomically, which is how hot reload
// works.
package fixture
