// Package storeauth is the authentication layer of a storefront whose sign-in
// options are configured by the store owner at runtime.
//
// Provider credentials (Google, GitHub and Facebook client ids and secrets)
// live in the store backend's settings, not in the process environment. A
// Builder fetches them on each request through a short lived cache, and
// returns the full provider list plus the callbacks that link OAuth
// identities to backend customers, shape the session token and keep
// redirects on the storefront.
//
// # Components
//
// Builder: produces AuthOptions from a settings.Fetcher (normally a
// settings.Cache in front of a settings.Client) and a CustomerService
// (normally a customer.Client).
//
// Callbacks: SignIn refuses OAuth identities the backend does not hand a
// token for, JWT copies the customer onto the token, Session projects the
// token for the application, Redirect confines redirects to the base URL.
//
// Auth: the HTTP runtime. It serves sign-in, callback, session and sign-out
// endpoints under /api/auth and keeps the signed token in an scs session.
//
// Middleware: loads the session for application handlers.
//
// # Basic Usage
//
//	cache := settings.NewCache(settings.NewClient(backendURL))
//	builder := storeauth.NewBuilder(cache, customer.NewClient(backendURL))
//
//	auth := storeauth.New(builder.Build, "https://shop.example.com")
//	mw := &storeauth.Middleware{Auth: auth, LoginURL: "/auth/login"}
//
//	router := mux.NewRouter()
//	auth.Routes(router)
//	router.Handle("/user/dashboard", mw.EnsureSession(dashboard))
//	http.ListenAndServe(":8080", auth.Session.LoadAndSave(router))
//
// Handlers read the customer with SessionFromContext. The grpc subpackage
// forwards it to backend services as request metadata.
//
// # Credentials
//
// Email/password sign-in posts to /api/auth/callback/credentials. The
// password is verified by the backend; on failure the backend's message is
// returned to the customer, or "Login failed! Please try again." when it gave
// none.
package storeauth
