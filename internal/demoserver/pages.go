package demoserver

// PageDefinition describes one servable demo page.
type PageDefinition struct {
	Path        string
	Description string
	HTML        string
}

// GetAllPages returns the demo page catalog.
func GetAllPages() []PageDefinition {
	return []PageDefinition{
		{
			Path:        "/broken",
			Description: "a page that violates most of the ruleset",
			HTML:        brokenHTML,
		},
		{
			Path:        "/clean",
			Description: "a page that should scan clean",
			HTML:        cleanHTML,
		},
		{
			Path:        "/forms",
			Description: "a signup form with unlabeled controls",
			HTML:        formsHTML,
		},
	}
}

const brokenHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, user-scalable=no">
</head>
<body>
    <div id="header">
        <img src="/static/logo.png">
        <h3>Latest Offers</h3>
    </div>
    <div>
        <a href="/deals">click here</a> to see our deals.
        <a href="/more"></a>
        <button></button>
        <span id="promo">Save big</span>
        <span id="promo">Save bigger</span>
    </div>
    <div id="footer">
        <form action="/subscribe">
            <input type="email" name="email" placeholder="Email">
            <input type="submit" value="Go">
        </form>
    </div>
</body>
</html>`

const cleanHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>Clean Demo Page</title>
</head>
<body>
    <header>
        <img src="/static/logo.png" alt="Demo company logo" width="120" height="40">
        <nav aria-label="Main">
            <a href="/clean">Home</a>
            <a href="/forms">Sign up</a>
        </nav>
    </header>
    <main>
        <h1>Welcome to the demo</h1>
        <p>This page is intended to pass every automated check.</p>
        <h2>About</h2>
        <p>It has a title, a language, landmarks, and well formed headings.</p>
    </main>
    <footer>
        <p>Demo footer.</p>
    </footer>
</body>
</html>`

const formsHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>Sign Up</title>
</head>
<body>
    <main>
        <h1>Sign up</h1>
        <form action="/signup" method="post">
            <input type="text" name="name" placeholder="Full name">
            <input type="email" name="email" placeholder="Email address">
            <select name="plan">
                <option>Starter</option>
                <option>Team</option>
            </select>
            <button type="submit">Create account</button>
        </form>
    </main>
</body>
</html>`
